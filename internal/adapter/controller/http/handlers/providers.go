package handlers

import (
	"net/http"

	"github.com/kr1s57/linkshield/internal/usecase/assess"
)

// ProvidersHandler exposes provider operational status
type ProvidersHandler struct {
	service *assess.Service
}

// NewProvidersHandler creates a new providers handler
func NewProvidersHandler(service *assess.Service) *ProvidersHandler {
	return &ProvidersHandler{service: service}
}

// Status handles GET /api/v1/providers/status
func (h *ProvidersHandler) Status(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.ProviderStatus()

	configured := 0
	for _, s := range statuses {
		if s.Configured {
			configured++
		}
	}

	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"providers":  statuses,
		"total":      len(statuses),
		"configured": configured,
	})
}
