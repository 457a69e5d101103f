package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// TransportError marks a non-2xx response or a timed-out request so callers
// can tell API failures apart from decode or validation errors. Timeout is
// set, with StatusCode zero, when no response arrived at all.
type TransportError struct {
	StatusCode int
	Body       string
	Timeout    bool
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("http timeout: %s", e.Body)
	}
	return fmt.Sprintf("http error %d: %s", e.StatusCode, e.Body)
}

var retryDelay = 2 * time.Second

// getWithRetry issues a GET and retries exactly once, after a short delay,
// on transport failure or a 5xx response. 4xx responses are returned
// immediately as *TransportError since retrying them cannot help.
func getWithRetry(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	body, err := doGet(ctx, client, url, accept)
	if err == nil {
		return body, nil
	}
	if te, ok := err.(*TransportError); ok && !te.Timeout && te.StatusCode < 500 {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryDelay):
	}
	return doGet(ctx, client, url, accept)
}

func doGet(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, &TransportError{Timeout: true, Body: err.Error()}
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
