package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	ctx := context.Background()
	backend, err := NewSQLiteBackend(ctx, filepath.Join(t.TempDir(), "bridge.db"))
	if err != nil {
		t.Fatalf("open sqlite backend: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestSQLiteBackendSetGetDelete(t *testing.T) {
	ctx := context.Background()
	backend := openTestSQLite(t)

	if _, ok, err := backend.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	if err := backend.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := backend.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, ok, err := backend.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != "v2" {
		t.Fatalf("expected v2, got %q", v)
	}

	if err := backend.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := backend.Get(ctx, "k"); ok {
		t.Fatal("expected key gone after delete")
	}
}

func TestSQLiteBackendIsPollOnly(t *testing.T) {
	backend := openTestSQLite(t)
	if ch := backend.Watch(context.Background()); ch != nil {
		t.Fatal("sqlite backend must not advertise change notifications")
	}
}
