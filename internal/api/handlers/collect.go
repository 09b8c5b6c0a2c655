package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/btlz/tenx/backend/internal/collector"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// CollectHandler triggers snapshot collection on demand.
type CollectHandler struct {
	collector *collector.Collector
	logger    *logger.Logger
}

// NewCollectHandler creates a collect handler.
func NewCollectHandler(col *collector.Collector, log *logger.Logger) *CollectHandler {
	return &CollectHandler{
		collector: col,
		logger:    log,
	}
}

// CollectRequest is a manual collection request. Both fields are
// optional: the whole catalog and today's date by default.
type CollectRequest struct {
	NmIDs []int64 `json:"nm_ids"`
	Day   string  `json:"day"`
}

// Collect runs one snapshot collection.
// POST /api/collect
func (h *CollectHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if r.Body != nil {
		// An empty body means defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.Day != "" {
		if _, err := time.Parse("2006-01-02", req.Day); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'day' format (expected YYYY-MM-DD)")
			return
		}
	}

	res, err := h.collector.Collect(r.Context(), req.NmIDs, req.Day)
	if err != nil {
		h.logger.WithError(err).Error("Snapshot collection failed")
		respondError(w, http.StatusInternalServerError, "Collection failed")
		return
	}

	status := "ok"
	if res.Skipped {
		status = "skipped"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"result": res,
	})
}
