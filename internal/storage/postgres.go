package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgNotifyChannel is the LISTEN/NOTIFY channel carrying changed keys.
const pgNotifyChannel = "bridge_changes"

// PostgresBackend stores key-value pairs in a kv table and raises a
// NOTIFY for every write, so bridges in other processes hear about
// changes without polling.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to databaseURL and ensures the kv table
// exists.
func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresBackend{pool: pool}, nil
}

// Get returns the value for key and whether it exists.
func (p *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set upserts value under key and notifies listeners with the key.
func (p *PostgresBackend) Set(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return err
	}
	// Best-effort: a missed notification is recovered by polling.
	_, _ = p.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, pgNotifyChannel, key)
	return nil
}

// Delete removes key and notifies listeners.
func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key)
	if err != nil {
		return err
	}
	_, _ = p.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, pgNotifyChannel, key)
	return nil
}

// Watch holds a dedicated connection on LISTEN and forwards notified keys.
// The returned channel closes when ctx is cancelled or the connection is
// lost; after that, bridges fall back to polling alone.
func (p *PostgresBackend) Watch(ctx context.Context) <-chan string {
	out := make(chan string, 16)

	go func() {
		defer close(out)

		conn, err := p.pool.Acquire(ctx)
		if err != nil {
			return
		}
		defer conn.Release()

		if _, err := conn.Exec(ctx, `LISTEN `+pgNotifyChannel); err != nil {
			return
		}

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			select {
			case out <- n.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Ping checks the database connection.
func (p *PostgresBackend) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}
