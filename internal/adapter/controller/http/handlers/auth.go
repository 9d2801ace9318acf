package handlers

import (
	"net/http"

	"github.com/kr1s57/linkshield/internal/usecase/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Username == "" || req.Password == "" {
		ErrorResponse(w, http.StatusBadRequest, "Username and password are required", nil)
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"success": true,
	})
}
