package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/archiveview/cache"
)

// Backend type names accepted by Open.
const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeRedis  = "redis"
	TypeSQLite = "sqlite"
	TypeNone   = "none"
)

// DefaultTTL bounds how long a Redis-backed session outlives its last write.
const DefaultTTL = 24 * time.Hour

// DefaultKeyPrefix namespaces Redis keys.
const DefaultKeyPrefix = "archiveview"

var (
	// ErrUnavailable wraps every storage failure.
	ErrUnavailable = errors.New("session: storage unavailable")

	// ErrUnknownType indicates an unsupported backend type.
	ErrUnknownType = errors.New("session: unknown storage type")

	// ErrInvalidID indicates a session id that cannot scope records.
	ErrInvalidID = errors.New("session: invalid session id")

	// ErrMissingPath indicates a file or sqlite backend without a path.
	ErrMissingPath = errors.New("session: path is required")

	// ErrMissingURL indicates a redis backend without a URL.
	ErrMissingURL = errors.New("session: redis url is required")
)

// Store is a cache.Storage that holds resources until closed.
type Store interface {
	cache.Storage

	// Type returns the backend type name.
	Type() string

	// Close releases the backend.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Type is one of memory, file, redis, sqlite or none. Empty means memory.
	Type string `yaml:"type" env:"TYPE"`

	// ID scopes records. Empty generates a fresh id.
	ID string `yaml:"id" env:"ID"`

	// Path is the directory for file and the database file for sqlite.
	Path string `yaml:"path" env:"PATH"`

	// RedisURL is a redis:// connection URL.
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`

	// KeyPrefix namespaces redis keys.
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`

	// TTL is the redis key expiry.
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks a session id. Ids share the cache name alphabet because
// the file backend uses them as directory names.
func ValidateID(id string) error {
	if err := cache.ValidateName(id); err != nil || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Validate checks the configuration without opening anything.
func (c Config) Validate() error {
	if c.ID != "" {
		if err := ValidateID(c.ID); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.Type) {
	case "", TypeMemory, TypeNone:
	case TypeFile, TypeSQLite:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("%w for %s storage", ErrMissingPath, c.Type)
		}
	case TypeRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return ErrMissingURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	return nil
}

// Open creates the configured backend. The returned id is the session id in
// use, generated when cfg.ID is empty.
func Open(ctx context.Context, cfg Config) (Store, string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	id := cfg.ID
	if id == "" {
		id = NewID()
	}

	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Type) {
	case "", TypeMemory:
		s = NewMemory()
	case TypeNone:
		s = Unavailable()
	case TypeFile:
		s, err = NewFile(cfg.Path, id)
	case TypeSQLite:
		s, err = OpenSQLite(ctx, cfg.Path, id)
	case TypeRedis:
		s, err = NewRedis(ctx, RedisConfig{
			URL:       cfg.RedisURL,
			SessionID: id,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL,
		})
	}
	if err != nil {
		return nil, "", err
	}
	return s, id, nil
}

func unavailable(backend, op, name string, err error) error {
	return fmt.Errorf("%w: %s %s %q: %w", ErrUnavailable, backend, op, name, err)
}
