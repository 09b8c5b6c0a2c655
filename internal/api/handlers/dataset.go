package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/btlz/tenx/backend/internal/checklist"
	"github.com/btlz/tenx/backend/pkg/logger"
)

// DatasetHandler serves dataset builds. The checklist is the only
// dataset today; the request shape leaves room for more.
type DatasetHandler struct {
	checklist *checklist.Service
	logger    *logger.Logger
}

// NewDatasetHandler creates a dataset handler.
func NewDatasetHandler(svc *checklist.Service, log *logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		checklist: svc,
		logger:    log,
	}
}

// DatasetRequest is the build request envelope.
type DatasetRequest struct {
	Dataset struct {
		Name   string `json:"name"`
		Values struct {
			NmIDs    []int64 `json:"nm_ids"`
			DateFrom string  `json:"date_from"`
			DateTo   string  `json:"date_to"`
		} `json:"values"`
	} `json:"dataset"`
}

// DatasetResponse is the build response envelope.
type DatasetResponse struct {
	Status  string `json:"status"`
	Dataset struct {
		Name     string           `json:"name"`
		RowCount int              `json:"row_count"`
		Rows     []map[string]any `json:"rows"`
	} `json:"dataset"`
}

// Build runs a dataset build.
// POST /v1/dataset
func (h *DatasetHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req DatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Dataset.Name != "checklist" {
		respondError(w, http.StatusBadRequest, "Unknown dataset: "+req.Dataset.Name)
		return
	}

	values := req.Dataset.Values
	rows, err := h.checklist.BuildChecklist(r.Context(), values.NmIDs, values.DateFrom, values.DateTo)
	if err != nil {
		if errors.Is(err, checklist.ErrInvalidDateRange) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Checklist build failed")
		respondError(w, http.StatusInternalServerError, "Dataset build failed")
		return
	}

	if rows == nil {
		rows = []map[string]any{}
	}
	var resp DatasetResponse
	resp.Status = "ok"
	resp.Dataset.Name = req.Dataset.Name
	resp.Dataset.RowCount = len(rows)
	resp.Dataset.Rows = rows

	respondJSON(w, http.StatusOK, resp)
}
