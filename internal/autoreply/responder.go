package autoreply

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrkrexx/404AI/internal/bridge"
	"github.com/mrkrexx/404AI/internal/metrics"
	"github.com/mrkrexx/404AI/internal/models"
)

// answeredTTL bounds the dedup set; an id older than this has long left
// the pending queue.
const answeredTTL = time.Hour

// Responder answers incoming bridge messages automatically while the
// bridge is in auto mode. In manual mode it stays silent and leaves the
// queue to the operator.
//
// It listens on both the sender-local newMessage event and the
// cross-context collection events, so it answers messages regardless of
// which context wrote them. The bridge's delivery redundancy means the
// same message can be seen several times; answered ids are remembered to
// keep replies single.
type Responder struct {
	bridge *bridge.Bridge
	logger zerolog.Logger

	mu       sync.Mutex
	answered map[string]time.Time

	onMessage    bridge.Listener
	onCollection bridge.Listener
}

// NewResponder creates a responder bound to b. Call Attach to start
// answering.
func NewResponder(b *bridge.Bridge, logger zerolog.Logger) *Responder {
	return &Responder{
		bridge:   b,
		logger:   logger,
		answered: make(map[string]time.Time),
	}
}

// Attach subscribes the responder to the bridge.
func (r *Responder) Attach() {
	r.onMessage = func(payload any) {
		if msg, ok := payload.(models.Message); ok {
			r.handle(msg)
		}
	}
	r.onCollection = func(payload any) {
		msgs, ok := payload.([]models.Message)
		if !ok {
			return
		}
		for _, msg := range msgs {
			r.handle(msg)
		}
	}

	r.bridge.On(bridge.EventNewMessage, r.onMessage)
	r.bridge.On(bridge.EventNewMessages, r.onCollection)
	r.bridge.On(bridge.EventCheckMessages, r.onCollection)
}

// Detach unsubscribes the responder.
func (r *Responder) Detach() {
	if r.onMessage != nil {
		r.bridge.Off(bridge.EventNewMessage, r.onMessage)
		r.onMessage = nil
	}
	if r.onCollection != nil {
		r.bridge.Off(bridge.EventNewMessages, r.onCollection)
		r.bridge.Off(bridge.EventCheckMessages, r.onCollection)
		r.onCollection = nil
	}
}

func (r *Responder) handle(msg models.Message) {
	ctx := context.Background()
	if r.bridge.Mode(ctx) != models.ModeAuto {
		return
	}
	if !r.claim(msg.ID) {
		return
	}

	category := Categorize(msg.Text)
	reply := Pick(category, msg.Text)

	r.bridge.MarkAsRead(ctx, msg.ID)
	r.bridge.SendResponse(ctx, msg.ID, reply)

	metrics.AutoRepliesTotal.WithLabelValues(string(category)).Inc()
	r.logger.Info().
		Str("message_id", msg.ID).
		Str("category", string(category)).
		Msg("auto-reply sent")
}

// claim records msg id as answered, reporting false when it already was.
func (r *Responder) claim(id string) bool {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.answered[id]; done {
		return false
	}
	for old, at := range r.answered {
		if now.Sub(at) > answeredTTL {
			delete(r.answered, old)
		}
	}
	r.answered[id] = now
	return true
}
