// Package api provides HTTP handlers for the reservation REST API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/sakura-ramen/voice-agent/internal/session"
	"github.com/sakura-ramen/voice-agent/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	repo    store.Repository
	manager *session.Manager
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, manager *session.Manager) *Handler {
	return &Handler{repo: repo, manager: manager}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
