package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/crobledo/plinth"
)

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the response appropriate for a classified error.
// Database failures map to 503 so that health probes distinguish a dead
// backend from a broken service.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	switch {
	case plinth.IsKind(err, plinth.KindDatabase):
		WriteError(w, http.StatusServiceUnavailable, "database_unavailable", "Database unavailable")
	case plinth.IsKind(err, plinth.KindConfiguration):
		WriteError(w, http.StatusInternalServerError, "configuration_error", "Service misconfigured")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
