package handlers

import (
	"net/http"

	"github.com/btlz/tenx/backend/internal/scheduler"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// StatusHandler exposes scheduler state for operations.
type StatusHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewStatusHandler creates a status handler. The scheduler may be nil
// when the API runs without one.
func NewStatusHandler(sched *scheduler.Scheduler, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		scheduler: sched,
		logger:    log,
	}
}

// Jobs returns per-job execution statistics.
// GET /api/jobs
func (h *StatusHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"scheduler": "disabled",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scheduler": "running",
		"jobs":      h.scheduler.GetJobStats(),
	})
}
