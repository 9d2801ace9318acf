package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kr1s57/linkshield/internal/entity"
	"github.com/kr1s57/linkshield/internal/usecase/assess"
	"github.com/kr1s57/linkshield/internal/usecase/reports"
)

// AssessHandler exposes assessment endpoints
type AssessHandler struct {
	service *assess.Service
	pdf     *reports.PDFGenerator
}

// NewAssessHandler creates a new assess handler
func NewAssessHandler(service *assess.Service) *AssessHandler {
	return &AssessHandler{
		service: service,
		pdf:     reports.NewPDFGenerator(),
	}
}

type assessURLRequest struct {
	URL string `json:"url"`
}

// AssessURL handles POST /api/v1/assess/url
func (h *AssessHandler) AssessURL(w http.ResponseWriter, r *http.Request) {
	var req assessURLRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	report, err := h.service.AssessURL(r.Context(), req.URL)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, report)
}

// AssessIP handles GET /api/v1/assess/ip/{ip}
func (h *AssessHandler) AssessIP(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")

	report, err := h.service.AssessIP(r.Context(), ip)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, report)
}

// AssessURLReport handles POST /api/v1/assess/url/report and returns a PDF.
func (h *AssessHandler) AssessURLReport(w http.ResponseWriter, r *http.Request) {
	var req assessURLRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	report, err := h.service.AssessURL(r.Context(), req.URL)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}

	data, err := h.pdf.Generate(report)
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="assessment-%s.pdf"`, report.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *AssessHandler) writeAssessError(w http.ResponseWriter, err error) {
	var invalid *entity.InvalidTargetError
	if errors.As(err, &invalid) {
		ErrorResponse(w, http.StatusBadRequest, "Invalid target", invalid)
		return
	}
	ErrorResponse(w, http.StatusInternalServerError, "Assessment failed", err)
}
