package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes data as a JSON response. Encode failures after the header has
// gone out can only be logged.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ErrorResponse is the uniform error envelope: a stable machine-readable
// code plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
