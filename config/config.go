package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonwraymond/archiveview/observe"
	"github.com/jonwraymond/archiveview/relation"
	"github.com/jonwraymond/archiveview/session"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "ARCHIVEVIEW_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete archiveview configuration.
type Config struct {
	API     APIConfig      `yaml:"api" envPrefix:"API_"`
	Files   FilesConfig    `yaml:"files" envPrefix:"FILES_"`
	Cache   CacheConfig    `yaml:"cache" envPrefix:"CACHE_"`
	Storage session.Config `yaml:"storage" envPrefix:"STORAGE_"`
	Observe ObserveConfig  `yaml:"observe" envPrefix:"OBSERVE_"`
}

// APIConfig configures the archive API client.
type APIConfig struct {
	// BaseURL is the API root, e.g. https://archive.example.com/api.
	BaseURL string            `yaml:"base_url" env:"BASE_URL" validate:"required,url,startswith=http"`
	Timeout time.Duration     `yaml:"timeout" env:"TIMEOUT" validate:"gt=0"`
	Headers map[string]string `yaml:"headers" env:"HEADERS"`

	Retry     RetryConfig     `yaml:"retry" envPrefix:"RETRY_"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Circuit   CircuitConfig   `yaml:"circuit" envPrefix:"CIRCUIT_"`

	// MaxConcurrent caps requests in flight. Zero disables the cap.
	MaxConcurrent int `yaml:"max_concurrent" env:"MAX_CONCURRENT" validate:"gte=0"`
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env:"MAX_ATTEMPTS" validate:"gte=1,lte=10"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY" validate:"gte=0"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"MAX_DELAY" validate:"gte=0"`
}

// RateLimitConfig configures client-side rate limiting. A zero rate
// disables it.
type RateLimitConfig struct {
	Rate    float64       `yaml:"rate" env:"RATE" validate:"gte=0"`
	Burst   int           `yaml:"burst" env:"BURST" validate:"gte=0"`
	MaxWait time.Duration `yaml:"max_wait" env:"MAX_WAIT" validate:"gte=0"`
}

// CircuitConfig configures the circuit breaker. Zero failures disables it.
type CircuitConfig struct {
	MaxFailures  int           `yaml:"max_failures" env:"MAX_FAILURES" validate:"gte=0"`
	ResetTimeout time.Duration `yaml:"reset_timeout" env:"RESET_TIMEOUT" validate:"gte=0"`
}

// FilesConfig configures file URL derivation. Empty URLs are taken from the
// server's public config.
type FilesConfig struct {
	ImagesURL        string `yaml:"images_url" env:"IMAGES_URL"`
	ResourceURL      string `yaml:"resource_url" env:"RESOURCE_URL"`
	Scheme           string `yaml:"scheme" env:"SCHEME" validate:"omitempty,oneof=bucketed flat"`
	BucketSize       int64  `yaml:"bucket_size" env:"BUCKET_SIZE" validate:"gte=0"`
	SkipPublicConfig bool   `yaml:"skip_public_config" env:"SKIP_PUBLIC_CONFIG"`
}

// CacheConfig configures every fetch cache.
type CacheConfig struct {
	Capacity int  `yaml:"capacity" env:"CAPACITY" validate:"gte=0"`
	Persist  bool `yaml:"persist" env:"PERSIST"`
}

// ObserveConfig configures logging and telemetry.
type ObserveConfig struct {
	ServiceName     string  `yaml:"service_name" env:"SERVICE_NAME" validate:"required"`
	LogLevel        string  `yaml:"log_level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	LogFormat       string  `yaml:"log_format" env:"LOG_FORMAT" validate:"omitempty,oneof=json text"`
	TracingExporter string  `yaml:"tracing_exporter" env:"TRACING_EXPORTER" validate:"omitempty,oneof=otlp stdout none"`
	MetricsExporter string  `yaml:"metrics_exporter" env:"METRICS_EXPORTER" validate:"omitempty,oneof=otlp prometheus stdout none"`
	SamplePct       float64 `yaml:"sample_pct" env:"SAMPLE_PCT" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration. BaseURL has no default.
func Default() Config {
	return Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:  1,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     10 * time.Second,
			},
			Circuit: CircuitConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
			},
			MaxConcurrent: 6,
		},
		Files: FilesConfig{
			Scheme:     relation.SchemeBucketed.String(),
			BucketSize: relation.DefaultBucketSize,
		},
		Cache: CacheConfig{
			Capacity: 128,
			Persist:  true,
		},
		Storage: session.Config{
			Type:      session.TypeMemory,
			KeyPrefix: session.DefaultKeyPrefix,
			TTL:       session.DefaultTTL,
		},
		Observe: ObserveConfig{
			ServiceName:     "archiveview",
			LogLevel:        "info",
			LogFormat:       "text",
			TracingExporter: "none",
			MetricsExporter: "none",
			SamplePct:       1,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalid, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.API.Retry.MaxDelay > 0 && c.API.Retry.InitialDelay > c.API.Retry.MaxDelay {
		return fmt.Errorf("%w: api.retry.initial_delay exceeds max_delay", ErrInvalid)
	}
	if _, err := c.Scheme(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("%w: storage: %w", ErrInvalid, err)
	}
	obs := c.ObserverConfig()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalid, err)
	}
	return nil
}

// Scheme returns the parsed file URL layout.
func (c *Config) Scheme() (relation.Scheme, error) {
	if c.Files.Scheme == "" {
		return relation.SchemeBucketed, nil
	}
	return relation.ParseScheme(c.Files.Scheme)
}

// ObserverConfig converts the observe section for observe.NewObserver.
// Exporters set to "none" disable their subsystem.
func (c *Config) ObserverConfig() observe.Config {
	o := c.Observe
	return observe.Config{
		ServiceName: o.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   o.TracingExporter != "" && o.TracingExporter != "none",
			Exporter:  o.TracingExporter,
			SamplePct: o.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.MetricsExporter != "" && o.MetricsExporter != "none",
			Exporter: o.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   o.LogLevel,
			Format:  o.LogFormat,
		},
	}
}
