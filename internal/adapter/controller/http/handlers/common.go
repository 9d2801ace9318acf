package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// JSONResponse sends a JSON response with the given status code
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse sends a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error":   message,
		"success": false,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	JSONResponse(w, statusCode, response)
}

// SuccessResponse sends a JSON success response
func SuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	response := map[string]interface{}{
		"message": message,
		"success": true,
	}
	if data != nil {
		response["data"] = data
	}
	JSONResponse(w, http.StatusOK, response)
}

// DecodeJSON decodes JSON from request body
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// QueryLimit parses a "limit" query parameter, clamped to [1, max].
func QueryLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
