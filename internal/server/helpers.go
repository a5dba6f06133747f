package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwbudde/subimgmatch/internal/match"
	"github.com/cwbudde/subimgmatch/internal/store"
)

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps an error to the HTTP status it should be reported with
func statusFor(err error) int {
	switch {
	case errors.Is(err, match.ErrInvalidInput), errors.Is(err, store.ErrInvalidJobID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// validateConfig checks a job request before any work is scheduled
func validateConfig(config JobConfig) string {
	if config.ReferencePath == "" {
		return "referencePath is required"
	}
	if config.TemplatePath == "" {
		return "templatePath is required"
	}
	if config.Strategy.String() == "unknown" {
		return "unknown strategy"
	}
	return ""
}
