package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// notifyChannel is the pub/sub channel carrying changed store keys.
const notifyChannel = "bridge:changes"

// RedisBackend stores key-value pairs in Redis and publishes every changed
// key on a pub/sub channel, so bridges in other processes hear about
// writes without waiting for their next poll.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to the Redis instance at redisURL.
func NewRedisBackend(ctx context.Context, redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisBackend{client: client}, nil
}

// Client exposes the underlying client for collaborators that share the
// connection (rate limiting).
func (r *RedisBackend) Client() *redis.Client { return r.client }

// Get returns the value for key and whether it exists.
func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value under key and publishes the key as changed. The
// publish is best-effort: a missed notification is recovered by polling.
func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return err
	}
	r.client.Publish(ctx, notifyChannel, key)
	return nil
}

// Delete removes key and publishes the change.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return err
	}
	r.client.Publish(ctx, notifyChannel, key)
	return nil
}

// Watch subscribes to the change channel and forwards changed keys. The
// returned channel closes when ctx is cancelled.
func (r *RedisBackend) Watch(ctx context.Context) <-chan string {
	sub := r.client.Subscribe(ctx, notifyChannel)
	out := make(chan string, 16)

	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Ping checks the Redis connection.
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
