package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"market-mood/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type runServiceStub struct {
	last   *domain.RunResult
	result domain.RunResult
	ran    bool
}

func (s *runServiceStub) LastResult() *domain.RunResult { return s.last }

func (s *runServiceStub) RunNow(ctx context.Context) (domain.RunResult, bool) {
	return s.result, s.ran
}

func testRouter(runs RunService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(trace.NewNoopTracerProvider().Tracer("test"), runs).RegisterRoutes(r)
	return r
}

func TestHealth(t *testing.T) {
	r := testRouter(&runServiceStub{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
}

func TestLastRunBeforeFirstRun(t *testing.T) {
	r := testRouter(&runServiceStub{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/last", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first run, got %d", w.Code)
	}
}

func TestLastRunReturnsReport(t *testing.T) {
	last := &domain.RunResult{
		StartedAt: time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC),
		Candles:   2,
	}
	r := testRouter(&runServiceStub{last: last})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/last", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	var got domain.RunResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Candles != 2 {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestTriggerRunConflictWhenLocked(t *testing.T) {
	r := testRouter(&runServiceStub{ran: false})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/runs", nil))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestTriggerRunReportsStageFailures(t *testing.T) {
	stub := &runServiceStub{
		ran: true,
		result: domain.RunResult{Stages: []domain.StageResult{
			{Stage: domain.StageFetchNews, Err: "feed down"},
		}},
	}
	r := testRouter(stub)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/runs", nil))

	if w.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207 for a partially failed run, got %d", w.Code)
	}
}
