package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error   string            `json:"error"`             // Machine-readable error code
	Message string            `json:"message"`           // Human-readable message
	Details map[string]string `json:"details,omitempty"` // Optional field-level context
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteErrorWithDetails(w, statusCode, errorCode, message, nil)
}

// WriteErrorWithDetails writes a JSON error response with field-level details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, errorCode, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:   errorCode,
		Message: message,
		Details: details,
	}

	// Log encoding errors but don't expose them to client
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes an arbitrary payload with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteTooManyRequests writes a 429 with a Retry-After header in seconds
func WriteTooManyRequests(w http.ResponseWriter, errorCode, message string, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	WriteError(w, http.StatusTooManyRequests, errorCode, message)
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, errorCode, message string) {
	WriteError(w, http.StatusBadRequest, errorCode, message)
}

func WriteForbidden(w http.ResponseWriter, errorCode, message string) {
	WriteError(w, http.StatusForbidden, errorCode, message)
}

func WriteServiceUnavailable(w http.ResponseWriter, errorCode, message string) {
	WriteError(w, http.StatusServiceUnavailable, errorCode, message)
}

func WriteInternalError(w http.ResponseWriter, errorCode, message string) {
	WriteError(w, http.StatusInternalServerError, errorCode, message)
}
