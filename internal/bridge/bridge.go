// Package bridge implements the cross-context message bridge: two logical
// queues (pending messages, pending responses) and a mode flag kept in a
// shared persistent store, with local event fan-out and a poll fallback
// for contexts that miss change notifications.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mrkrexx/404AI/internal/metrics"
	"github.com/mrkrexx/404AI/internal/models"
	"github.com/mrkrexx/404AI/internal/storage"
)

// Bridge events. newMessage/newResponse fire immediately for the writing
// context; newMessages/newResponses/modeChange fire when a change
// notification arrives; checkMessages/checkResponses/checkMode fire on
// every poll tick regardless of change.
const (
	EventNewMessage     = "newMessage"     // models.Message
	EventNewResponse    = "newResponse"    // models.Response
	EventNewMessages    = "newMessages"    // []models.Message (full collection)
	EventNewResponses   = "newResponses"   // []models.Response (full collection)
	EventModeChange     = "modeChange"     // models.Mode
	EventCheckMessages  = "checkMessages"  // []models.Message
	EventCheckResponses = "checkResponses" // []models.Response
	EventCheckMode      = "checkMode"      // models.Mode
)

// Logical store keys, namespaced by the adapter.
const (
	keyMessages  = "messages"
	keyResponses = "responses"
	keyMode      = "mode"
)

// Options tune bridge behavior. Zero values get defaults.
type Options struct {
	PollInterval time.Duration // poll fallback period, default 1s
	ReemitDelay  time.Duration // delayed re-emit after send, default 100ms
	Retention    time.Duration // cleanup horizon, default 24h
	Source       string        // origin tag for sent messages
	Sender       string        // sender tag for sent responses
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.ReemitDelay <= 0 {
		o.ReemitDelay = 100 * time.Millisecond
	}
	if o.Retention <= 0 {
		o.Retention = 24 * time.Hour
	}
	if o.Source == "" {
		o.Source = models.DefaultSource
	}
	if o.Sender == "" {
		o.Sender = models.DefaultSender
	}
	return o
}

// Stats is a read-only snapshot of bridge state.
type Stats struct {
	TotalMessages  int         `json:"totalMessages"`
	UnreadMessages int         `json:"unreadMessages"`
	TotalResponses int         `json:"totalResponses"`
	Mode           models.Mode `json:"mode"`
}

// Bridge relays messages between loosely-coupled agent contexts over a
// shared store. Every mutation is a whole-collection read-modify-write:
// concurrent writers from two contexts race and the later write wins.
// That limitation is inherent to the no-backend design and deliberately
// not papered over with locking the store does not support.
//
// Within one context, bridge operations observe their own writes
// immediately. Other contexts observe the latest snapshot via change
// notifications or the next poll tick.
type Bridge struct {
	store  *storage.Adapter
	events *Emitter
	logger zerolog.Logger
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	timerMu sync.Mutex
	timers  map[*time.Timer]struct{}
}

// New creates a bridge over store. Call Start to begin watching and
// polling, and Dispose to stop all background activity.
func New(store *storage.Adapter, logger zerolog.Logger, opts Options) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		store:  store,
		events: NewEmitter(logger),
		logger: logger,
		opts:   opts.withDefaults(),
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Start launches the change-notification watcher (when the backend
// supports one) and the poll ticker.
func (b *Bridge) Start() {
	if ch := b.store.Backend().Watch(b.ctx); ch != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for key := range ch {
				b.dispatch(key)
			}
		}()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-b.ctx.Done():
				return
			case <-ticker.C:
				b.checkForUpdates()
			}
		}
	}()
}

// Dispose stops the poll ticker, the watcher, and any pending delayed
// re-emits. The bridge must not be used after Dispose.
func (b *Bridge) Dispose() {
	b.cancel()
	b.timerMu.Lock()
	for t := range b.timers {
		t.Stop()
	}
	b.timers = make(map[*time.Timer]struct{})
	b.timerMu.Unlock()
	b.wg.Wait()
}

// On subscribes fn to a bridge event.
func (b *Bridge) On(event string, fn Listener) { b.events.On(event, fn) }

// Off removes a subscription made with On.
func (b *Bridge) Off(event string, fn Listener) { b.events.Off(event, fn) }

// SendMessage creates a pending message, persists it, and publishes it on
// every available channel. It never fails from the caller's point of
// view: persistence errors are logged and masked.
func (b *Bridge) SendMessage(ctx context.Context, text string) string {
	msg := models.Message{
		ID:        ulid.Make().String(),
		Text:      text,
		Timestamp: time.Now().UTC(),
		Source:    b.opts.Source,
	}

	messages := b.Messages(ctx)
	messages = append([]models.Message{msg}, messages...)
	b.store.Save(ctx, keyMessages, messages)

	metrics.BridgeMessagesSent.Inc()
	b.publish(keyMessages, EventNewMessage, msg)
	return msg.ID
}

// SendResponse records a response against messageID, removes the message
// from the pending queue (a no-op if it is already gone), and publishes.
// Always reports success synchronously.
func (b *Bridge) SendResponse(ctx context.Context, messageID, text string) bool {
	resp := models.Response{
		MessageID: messageID,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Sender:    b.opts.Sender,
	}

	responses := b.Responses(ctx)
	responses = append([]models.Response{resp}, responses...)
	b.store.Save(ctx, keyResponses, responses)

	b.removeMessage(ctx, messageID)

	metrics.BridgeResponsesSent.Inc()
	b.publish(keyResponses, EventNewResponse, resp)
	return true
}

// MarkAsRead flags the pending message with messageID as read. Unknown
// ids are a no-op.
func (b *Bridge) MarkAsRead(ctx context.Context, messageID string) {
	messages := b.Messages(ctx)
	for i := range messages {
		if messages[i].ID == messageID {
			if messages[i].Read {
				return
			}
			messages[i].Read = true
			b.store.Save(ctx, keyMessages, messages)
			return
		}
	}
}

// SetMode writes the store-wide mode flag, last write wins.
func (b *Bridge) SetMode(ctx context.Context, mode models.Mode) {
	if !mode.Valid() {
		b.logger.Warn().Str("mode", string(mode)).Msg("bridge: ignoring unknown mode")
		return
	}
	b.store.Save(ctx, keyMode, models.ModeState{Mode: mode, Timestamp: time.Now().UTC()})
	b.dispatch(b.store.Key(keyMode))
}

// Mode reads the current mode, defaulting to manual on absence or any
// read failure.
func (b *Bridge) Mode(ctx context.Context) models.Mode {
	var state models.ModeState
	if !b.store.Load(ctx, keyMode, &state) || !state.Mode.Valid() {
		return models.ModeManual
	}
	return state.Mode
}

// Messages returns the pending queue, newest first. Read failures yield
// an empty queue; entries that fail validation are dropped with a log.
func (b *Bridge) Messages(ctx context.Context) []models.Message {
	var messages []models.Message
	b.store.Load(ctx, keyMessages, &messages)
	valid := messages[:0]
	for i := range messages {
		if err := messages[i].Validate(); err != nil {
			b.logger.Warn().Err(err).Msg("bridge: dropping invalid stored message")
			continue
		}
		valid = append(valid, messages[i])
	}
	return valid
}

// Responses returns the response log, newest first.
func (b *Bridge) Responses(ctx context.Context) []models.Response {
	var responses []models.Response
	b.store.Load(ctx, keyResponses, &responses)
	valid := responses[:0]
	for i := range responses {
		if err := responses[i].Validate(); err != nil {
			b.logger.Warn().Err(err).Msg("bridge: dropping invalid stored response")
			continue
		}
		valid = append(valid, responses[i])
	}
	return valid
}

// Cleanup drops messages and responses older than the retention horizon.
// Entries exactly at the boundary are dropped, consistently for both
// collections.
func (b *Bridge) Cleanup(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-b.opts.Retention)
	removed := 0

	messages := b.Messages(ctx)
	keptMessages := messages[:0]
	for _, m := range messages {
		if m.Timestamp.After(cutoff) {
			keptMessages = append(keptMessages, m)
		} else {
			removed++
		}
	}
	b.store.Save(ctx, keyMessages, keptMessages)

	responses := b.Responses(ctx)
	keptResponses := responses[:0]
	for _, r := range responses {
		if r.Timestamp.After(cutoff) {
			keptResponses = append(keptResponses, r)
		} else {
			removed++
		}
	}
	b.store.Save(ctx, keyResponses, keptResponses)

	if removed > 0 {
		metrics.BridgeEntriesExpired.Add(float64(removed))
		b.logger.Info().Int("removed", removed).Msg("bridge: cleanup completed")
	}
}

// Stats returns a read-only snapshot of bridge state.
func (b *Bridge) Stats(ctx context.Context) Stats {
	messages := b.Messages(ctx)
	unread := 0
	for _, m := range messages {
		if !m.Read {
			unread++
		}
	}
	return Stats{
		TotalMessages:  len(messages),
		UnreadMessages: unread,
		TotalResponses: len(b.Responses(ctx)),
		Mode:           b.Mode(ctx),
	}
}

// publish is the single fan-out point for a send: the store write already
// happened (natural backend notification); this adds the explicit
// self-dispatch of the key handler (the writer cannot rely on hearing its
// own write), the immediate local event, and a delayed re-emit guarding
// against subscriber registration races.
func (b *Bridge) publish(key, event string, payload any) {
	b.dispatch(b.store.Key(key))
	b.emit(event, payload)
	b.afterFunc(b.opts.ReemitDelay, func() {
		b.emit(event, payload)
	})
}

// dispatch routes a changed store key to its collection handler and
// re-emits the full current collection as a bridge event.
func (b *Bridge) dispatch(storeKey string) {
	ctx := b.ctx
	switch storeKey {
	case b.store.Key(keyMessages):
		b.emit(EventNewMessages, b.Messages(ctx))
	case b.store.Key(keyResponses):
		b.emit(EventNewResponses, b.Responses(ctx))
	case b.store.Key(keyMode):
		b.emit(EventModeChange, b.Mode(ctx))
	}
}

// checkForUpdates is the poll fallback: re-read all three keys and emit
// snapshots unconditionally.
func (b *Bridge) checkForUpdates() {
	ctx := b.ctx
	b.emit(EventCheckMessages, b.Messages(ctx))
	b.emit(EventCheckResponses, b.Responses(ctx))
	b.emit(EventCheckMode, b.Mode(ctx))
}

func (b *Bridge) emit(event string, payload any) {
	metrics.BridgeEventsEmitted.WithLabelValues(event).Inc()
	b.events.Emit(event, payload)
}

func (b *Bridge) removeMessage(ctx context.Context, messageID string) {
	messages := b.Messages(ctx)
	kept := messages[:0]
	found := false
	for _, m := range messages {
		if m.ID == messageID {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if found {
		b.store.Save(ctx, keyMessages, kept)
	}
}

// afterFunc schedules fn once after d, cancellable by Dispose.
func (b *Bridge) afterFunc(d time.Duration, fn func()) {
	b.timerMu.Lock()
	defer b.timerMu.Unlock()
	if b.ctx.Err() != nil {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		b.timerMu.Lock()
		delete(b.timers, t)
		disposed := b.ctx.Err() != nil
		b.timerMu.Unlock()
		if !disposed {
			fn()
		}
	})
	b.timers[t] = struct{}{}
}
