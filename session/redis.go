package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the connection URL, e.g. "redis://localhost:6379/0".
	URL string

	// SessionID scopes every key.
	SessionID string

	// KeyPrefix namespaces keys (defaults to "archiveview").
	KeyPrefix string

	// TTL is refreshed on every write (defaults to 24 hours).
	TTL time.Duration
}

// Redis stores each record under <prefix>:session:<id>:<name>.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid redis url: %w", err)
	}
	r, err := NewRedisFromClient(redis.NewClient(opts), cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("%w: redis ping: %w", ErrUnavailable, err)
	}
	return r, nil
}

// NewRedisFromClient wraps an existing client without contacting it.
func NewRedisFromClient(client *redis.Client, cfg RedisConfig) (*Redis, error) {
	if err := ValidateID(cfg.SessionID); err != nil {
		return nil, err
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: client,
		prefix: prefix + ":session:" + cfg.SessionID + ":",
		ttl:    ttl,
	}, nil
}

// Type returns "redis".
func (r *Redis) Type() string { return TypeRedis }

// Key returns the redis key holding the named record.
func (r *Redis) Key(name string) string {
	return r.prefix + name
}

// Get reads the record.
func (r *Redis) Get(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.Key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, unavailable(TypeRedis, "get", name, err)
	}
	return data, true, nil
}

// Set writes the record and refreshes its expiry.
func (r *Redis) Set(ctx context.Context, name string, data []byte) error {
	if err := r.client.Set(ctx, r.Key(name), data, r.ttl).Err(); err != nil {
		return unavailable(TypeRedis, "set", name, err)
	}
	return nil
}

// Remove deletes the record.
func (r *Redis) Remove(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.Key(name)).Err(); err != nil {
		return unavailable(TypeRedis, "remove", name, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
