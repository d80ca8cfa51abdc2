package handlers

import (
	"net/http"

	"github.com/mrkrexx/404AI/internal/bridge"
)

// StatsResponse combines relay queue depth with the bridge snapshot.
type StatsResponse struct {
	QueueDepth int          `json:"queueDepth"`
	Bridge     bridge.Stats `json:"bridge"`
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{QueueDepth: h.queue.Len()}
	if h.bridge != nil {
		resp.Bridge = h.bridge.Stats(r.Context())
	}
	h.JSON(w, http.StatusOK, resp)
}
