package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mrkrexx/404AI/internal/metrics"
	"github.com/mrkrexx/404AI/internal/models"
)

// MessageListResponse is the local agent's queue view.
type MessageListResponse struct {
	Messages    []models.Message `json:"messages"`
	UnreadCount int              `json:"unreadCount"`
}

// RespondRequest carries an operator response.
type RespondRequest struct {
	Response string `json:"response"`
}

// ListMessages handles GET /api/messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, unread := h.queue.List()
	h.JSON(w, http.StatusOK, MessageListResponse{
		Messages:    messages,
		UnreadCount: unread,
	})
}

// MarkMessageRead handles PUT /api/messages/{id}/read.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.queue.MarkRead(id) {
		h.Error(w, http.StatusNotFound, "Message not found")
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RespondToMessage handles POST /api/messages/{id}/respond. The response
// is appended to the message and the message leaves the queue; the relay
// keeps no response log.
func (h *Handler) RespondToMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !h.queue.Respond(id, req.Response) {
		h.Error(w, http.StatusNotFound, "Message not found")
		return
	}

	metrics.RelayResponsesSent.Inc()
	if operator := r.Header.Get("X-Operator"); operator != "" && h.auth != nil {
		h.auth.RecordAnswer(r.Context(), operator)
	}
	h.logger.Info().Str("message_id", id).Msg("response sent")

	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
