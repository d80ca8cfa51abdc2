package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mrkrexx/404AI/internal/auth"
	"github.com/mrkrexx/404AI/internal/bridge"
	"github.com/mrkrexx/404AI/internal/relay"
	"github.com/mrkrexx/404AI/internal/storage"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	queue  *relay.Queue
	bridge *bridge.Bridge
	auth   *auth.Service
	store  storage.Backend
	logger zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(queue *relay.Queue, b *bridge.Bridge, authSvc *auth.Service, store storage.Backend, logger zerolog.Logger) *Handler {
	return &Handler{queue: queue, bridge: b, auth: authSvc, store: store, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
