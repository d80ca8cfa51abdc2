package storage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testAdapter() (*Adapter, *MemoryBackend) {
	backend := NewMemoryBackend()
	return NewAdapter(backend, "test:", zerolog.Nop()), backend
}

func TestAdapterSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter, _ := testAdapter()

	in := map[string]int{"a": 1, "b": 2}
	if !adapter.Save(ctx, "counts", in) {
		t.Fatal("save failed")
	}

	out := map[string]int{}
	if !adapter.Load(ctx, "counts", &out) {
		t.Fatal("load failed")
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestAdapterLoadMissingKeyKeepsDefault(t *testing.T) {
	ctx := context.Background()
	adapter, _ := testAdapter()

	out := []string{"default"}
	if adapter.Load(ctx, "absent", &out) {
		t.Fatal("expected load of missing key to report false")
	}
	if len(out) != 1 || out[0] != "default" {
		t.Fatalf("default clobbered: %v", out)
	}
}

func TestAdapterQuarantinesMalformedPayload(t *testing.T) {
	ctx := context.Background()
	adapter, backend := testAdapter()

	if err := backend.Set(ctx, "test:broken", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var out map[string]string
	if adapter.Load(ctx, "broken", &out) {
		t.Fatal("expected load of malformed payload to report false")
	}

	raw, ok, err := backend.Get(ctx, "test:broken:corrupt")
	if err != nil || !ok {
		t.Fatalf("expected quarantined copy, ok=%v err=%v", ok, err)
	}
	if raw != "{not json" {
		t.Fatalf("quarantined payload mismatch: %q", raw)
	}
}

func TestAdapterKeyPrefix(t *testing.T) {
	adapter, _ := testAdapter()
	if got := adapter.Key("messages"); got != "test:messages" {
		t.Fatalf("expected test:messages, got %q", got)
	}
}

func TestMemoryBackendWatchDeliversChangedKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := NewMemoryBackend()
	ch := backend.Watch(ctx)

	if err := backend.Set(ctx, "k1", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	select {
	case key := <-ch:
		if key != "k1" {
			t.Fatalf("expected k1, got %q", key)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}

func TestMemoryBackendWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := NewMemoryBackend()
	ch := backend.Watch(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}
