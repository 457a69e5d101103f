package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestGetWithRetryRetriesOn5xx(t *testing.T) {
	oldDelay := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = oldDelay }()

	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(http.StatusBadGateway, "bad gateway"), nil
		}
		return jsonResponse(http.StatusOK, `{"ok":true}`), nil
	})}

	body, err := getWithRetry(context.Background(), client, "https://example.com/x", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestGetWithRetrySurfacesTimeoutAsTransportError(t *testing.T) {
	oldDelay := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = oldDelay }()

	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return nil, timeoutError{}
	})}

	_, err := getWithRetry(context.Background(), client, "https://example.com/x", "")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error for a timeout, got %v", err)
	}
	if !te.Timeout {
		t.Fatalf("expected timeout flag set, got %+v", te)
	}
	if calls != 2 {
		t.Fatalf("expected the timed-out request to be retried once, got %d calls", calls)
	}
}

func TestGetWithRetryDoesNotRetry4xx(t *testing.T) {
	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusNotFound, "missing"), nil
	})}

	_, err := getWithRetry(context.Background(), client, "https://example.com/x", "")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if te.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", te.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
