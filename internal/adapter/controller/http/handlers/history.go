package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kr1s57/linkshield/internal/adapter/repository/clickhouse"
	"github.com/kr1s57/linkshield/internal/entity"
)

// HistoryHandler serves stored assessment history. Only wired when
// ClickHouse persistence is enabled.
type HistoryHandler struct {
	repo *clickhouse.AssessmentsRepository
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(repo *clickhouse.AssessmentsRepository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// Recent handles GET /api/v1/assessments/recent
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := QueryLimit(r, 50, 500)

	records, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch assessments", err)
		return
	}

	h.writeRecords(w, records)
}

// Top handles GET /api/v1/assessments/top
func (h *HistoryHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := QueryLimit(r, 50, 500)

	records, err := h.repo.TopRisky(r.Context(), limit)
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch assessments", err)
		return
	}

	h.writeRecords(w, records)
}

// ByLevel handles GET /api/v1/assessments/level/{level}
func (h *HistoryHandler) ByLevel(w http.ResponseWriter, r *http.Request) {
	level := chi.URLParam(r, "level")
	switch entity.RiskLevel(level) {
	case entity.RiskVeryLow, entity.RiskLow, entity.RiskMedium,
		entity.RiskHigh, entity.RiskVeryHigh, entity.RiskUnknown:
	default:
		ErrorResponse(w, http.StatusBadRequest, "Unknown risk level", nil)
		return
	}

	limit := QueryLimit(r, 50, 500)

	records, err := h.repo.ByLevel(r.Context(), level, limit)
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch assessments", err)
		return
	}

	h.writeRecords(w, records)
}

func (h *HistoryHandler) writeRecords(w http.ResponseWriter, records []entity.AssessmentRecord) {
	if records == nil {
		records = []entity.AssessmentRecord{}
	}
	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"assessments": records,
		"count":       len(records),
	})
}
