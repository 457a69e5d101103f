package handler

import (
	"context"

	"market-mood/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// RunService is the slice of the ingest job the ops endpoints need.
type RunService interface {
	LastResult() *domain.RunResult
	RunNow(ctx context.Context) (domain.RunResult, bool)
}

type Handler struct {
	tracer trace.Tracer
	runs   RunService
}

func New(tracer trace.Tracer, runs RunService) *Handler {
	return &Handler{tracer: tracer, runs: runs}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/runs/last", h.LastRun)
	r.POST("/api/runs", h.TriggerRun)
}
