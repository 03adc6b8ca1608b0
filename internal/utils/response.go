// Package utils holds the JSON response helpers shared by the HTTP handlers.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/jobvyne/navguard/internal/logger"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RequestID        string `json:"request_id,omitempty"`
}

// WriteJSON writes data as a 200 JSON response.
func WriteJSON(w http.ResponseWriter, data interface{}) {
	WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus writes data as a JSON response with the given status.
func WriteJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes a JSON error response. The request id, when the
// response already carries one, is echoed in the body.
func WriteError(w http.ResponseWriter, code, message string, status int) {
	WriteJSONStatus(w, status, ErrorBody{
		Error:            code,
		ErrorDescription: message,
		RequestID:        w.Header().Get(RequestIDHeader),
	})
}

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-ID"
