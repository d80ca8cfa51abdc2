// Package storage provides the shared key-value store the message bridge
// runs on, plus the JSON adapter that isolates callers from store failures.
package storage

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Backend is a persistent string key-value store shared between contexts.
// Backends that can push change notifications return a channel of changed
// keys from Watch; poll-only backends return nil and rely on the bridge's
// poll fallback.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// Watch returns a channel delivering keys as they change, or nil if
	// the backend cannot observe changes. The channel closes when ctx is
	// cancelled.
	Watch(ctx context.Context) <-chan string

	Ping(ctx context.Context) error
	Close() error
}

// Adapter wraps a Backend with JSON (de)serialization and failure masking.
// No Adapter method propagates a store error to the caller: Save reports
// failure as false, Load leaves dest untouched and reports false.
type Adapter struct {
	backend Backend
	prefix  string
	logger  zerolog.Logger
}

// NewAdapter creates an adapter over backend. All keys are namespaced with
// prefix.
func NewAdapter(backend Backend, prefix string, logger zerolog.Logger) *Adapter {
	return &Adapter{backend: backend, prefix: prefix, logger: logger}
}

// Backend returns the underlying store.
func (a *Adapter) Backend() Backend { return a.backend }

// Key returns the namespaced store key for a logical key.
func (a *Adapter) Key(key string) string { return a.prefix + key }

// Save serializes v and writes it under key. Returns false on
// serialization or write failure; never panics or returns an error.
func (a *Adapter) Save(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("storage: marshal failed")
		return false
	}
	if err := a.backend.Set(ctx, a.Key(key), string(data)); err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("storage: write failed")
		return false
	}
	return true
}

// Load reads key and deserializes into dest. On a missing key, read
// failure, or malformed payload it leaves dest untouched and returns
// false, so the caller's preset default survives. Malformed payloads are
// quarantined under "<key>:corrupt" rather than silently overwritten.
func (a *Adapter) Load(ctx context.Context, key string, dest any) bool {
	raw, ok, err := a.backend.Get(ctx, a.Key(key))
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("storage: read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		a.logger.Error().Err(err).Str("key", key).Int("bytes", len(raw)).
			Msg("storage: malformed payload, quarantining")
		a.quarantine(ctx, key, raw)
		return false
	}
	return true
}

// Remove deletes key. Failures are logged and swallowed.
func (a *Adapter) Remove(ctx context.Context, key string) {
	if err := a.backend.Delete(ctx, a.Key(key)); err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("storage: delete failed")
	}
}

func (a *Adapter) quarantine(ctx context.Context, key, raw string) {
	if err := a.backend.Set(ctx, a.Key(key)+":corrupt", raw); err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("storage: quarantine failed")
	}
}
