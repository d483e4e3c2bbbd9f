package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Meta holds metadata for every API response.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// ListMeta extends Meta with pagination information.
type ListMeta struct {
	Meta
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Envelope is the standard API response wrapper: {success, data} on success,
// {success, error} or {success, errors} on failure.
type Envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Meta    Meta                `json:"meta"`
}

// ListEnvelope is the response wrapper for list endpoints with pagination metadata.
type ListEnvelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Meta    ListMeta `json:"meta"`
}

// NewMeta creates a Meta with the current timestamp. If requestID is empty a
// fresh UUID is generated.
func NewMeta(requestID string) Meta {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return Meta{
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// JSON writes a JSON response with the given status code and body.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Success writes a successful JSON response. A nil data yields a bare
// {success: true} signal, used by delete endpoints.
func Success(w http.ResponseWriter, status int, data any, requestID string) {
	JSON(w, status, Envelope{
		Success: true,
		Data:    data,
		Meta:    NewMeta(requestID),
	})
}

// SuccessList writes a successful list JSON response with pagination metadata.
func SuccessList(w http.ResponseWriter, status int, data any, total, page, limit int, requestID string) {
	JSON(w, status, ListEnvelope{
		Success: true,
		Data:    data,
		Meta: ListMeta{
			Meta:  NewMeta(requestID),
			Total: total,
			Page:  page,
			Limit: limit,
		},
	})
}

// Err writes a single-message error response.
func Err(w http.ResponseWriter, status int, message string, requestID string) {
	JSON(w, status, Envelope{
		Success: false,
		Error:   message,
		Meta:    NewMeta(requestID),
	})
}

// FieldErrors writes a 400 response carrying a field -> messages map.
func FieldErrors(w http.ResponseWriter, errs map[string][]string, requestID string) {
	JSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Errors:  errs,
		Meta:    NewMeta(requestID),
	})
}

// NotModified writes a 304 with no body.
func NotModified(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotModified)
}
