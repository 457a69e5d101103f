package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LastRun returns the report of the most recent pipeline run.
func (h *Handler) LastRun(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.last-run")
	defer span.End()

	last := h.runs.LastResult()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

// TriggerRun executes a pipeline run synchronously. Returns 409 when
// another run holds the lock.
func (h *Handler) TriggerRun(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-run")
	defer span.End()

	result, ran := h.runs.RunNow(ctx)
	if !ran {
		c.JSON(http.StatusConflict, gin.H{"error": "another run is in progress"})
		return
	}
	status := http.StatusOK
	if result.Failed() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}
