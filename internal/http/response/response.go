// Package response writes the JSON envelope shared by every API response.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Version is the envelope format version, sent as "v".
const Version = 1

// CodeRateLimited is the error code of a 429 response.
const CodeRateLimited = "RATE_LIMITED"

// Envelope wraps a response body. Successful responses carry Data; failed
// ones carry Code, Message and optional Details.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{V: Version, Success: true, Data: data}
}

// Failure builds an error envelope.
func Failure(code, message string, details any) Envelope {
	return Envelope{V: Version, Success: false, Code: code, Message: message, Details: details}
}

// JSON writes env with status.
func JSON(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Success writes data with 200 OK.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, OK(data), logger)
}

// Error writes an error envelope with status.
func Error(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	JSON(w, status, Failure(code, message, nil), logger)
}

// TooManyRequests writes a 429 with a Retry-After of retryAfter seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter string, logger *slog.Logger) {
	w.Header().Set("Retry-After", retryAfter)
	Error(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", logger)
}
