package bridge

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// Listener receives event payloads. Payload types per event are listed on
// the event constants in bridge.go.
type Listener func(payload any)

// Emitter is an in-process publish/subscribe table keyed by event name.
// Subscriber panics are isolated: one misbehaving listener cannot starve
// the others or the publisher.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    zerolog.Logger
}

// NewEmitter creates an empty emitter.
func NewEmitter(logger zerolog.Logger) *Emitter {
	return &Emitter{listeners: make(map[string][]Listener), logger: logger}
}

// On subscribes fn to event. Listeners are called in registration order.
func (e *Emitter) On(event string, fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], fn)
}

// Off removes the first subscription of fn to event, matched by function
// identity. Removing a listener that is not subscribed is a no-op.
func (e *Emitter) Off(event string, fn Listener) {
	ptr := reflect.ValueOf(fn).Pointer()
	e.mu.Lock()
	defer e.mu.Unlock()
	listeners := e.listeners[event]
	for i, l := range listeners {
		if reflect.ValueOf(l).Pointer() == ptr {
			e.listeners[event] = append(listeners[:i], listeners[i+1:]...)
			return
		}
	}
}

// Emit calls every listener subscribed to event with payload.
func (e *Emitter) Emit(event string, payload any) {
	e.mu.RLock()
	listeners := make([]Listener, len(e.listeners[event]))
	copy(listeners, e.listeners[event])
	e.mu.RUnlock()

	for _, fn := range listeners {
		e.call(event, fn, payload)
	}
}

func (e *Emitter) call(event string, fn Listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Str("event", event).Interface("panic", r).
				Msg("bridge: listener panicked")
		}
	}()
	fn(payload)
}
