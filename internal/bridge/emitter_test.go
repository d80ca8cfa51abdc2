package bridge

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestEmitterCallsListenersInOrder(t *testing.T) {
	e := NewEmitter(zerolog.Nop())

	var order []int
	e.On("ev", func(any) { order = append(order, 1) })
	e.On("ev", func(any) { order = append(order, 2) })

	e.Emit("ev", nil)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected [1 2], got %v", order)
	}
}

func TestEmitterIsolatesPanickingListener(t *testing.T) {
	e := NewEmitter(zerolog.Nop())

	called := false
	e.On("ev", func(any) { panic("boom") })
	e.On("ev", func(any) { called = true })

	e.Emit("ev", nil)

	if !called {
		t.Fatal("listener after panicking one was not called")
	}
}

func TestEmitterOff(t *testing.T) {
	e := NewEmitter(zerolog.Nop())

	calls := 0
	fn := func(any) { calls++ }
	e.On("ev", fn)
	e.Emit("ev", nil)
	e.Off("ev", fn)
	e.Emit("ev", nil)

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestEmitterOffUnknownListenerIsNoop(t *testing.T) {
	e := NewEmitter(zerolog.Nop())
	e.Off("ev", func(any) {}) // must not panic
	e.On("ev", func(any) {})
	e.Off("other", func(any) {})
	e.Emit("ev", nil)
}
