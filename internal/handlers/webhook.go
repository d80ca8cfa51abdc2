package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mrkrexx/404AI/internal/metrics"
	"github.com/mrkrexx/404AI/internal/relay"
)

// WebhookRequest is the ingest payload from the public agent.
type WebhookRequest struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
	Source    string `json:"source,omitempty"`
}

// WebhookResponse acknowledges an ingested message.
type WebhookResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// ReceiveMessage handles POST /webhook/message.
func (h *Handler) ReceiveMessage(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// A missing or unparseable timestamp defaults to now.
	var ts time.Time
	if req.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			ts = parsed
		}
	}

	msg, err := h.queue.Add(req.Message, ts, req.Source)
	if errors.Is(err, relay.ErrEmptyMessage) {
		h.Error(w, http.StatusBadRequest, "Message is required")
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	metrics.RelayMessagesReceived.Inc()
	h.logger.Info().
		Str("message_id", msg.ID).
		Str("source", msg.Source).
		Msg("message received")

	h.JSON(w, http.StatusOK, WebhookResponse{
		Success:   true,
		MessageID: msg.ID,
		Status:    "received",
	})
}
