package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/archiveview/archive"
	"github.com/jonwraymond/archiveview/cache"
	"github.com/jonwraymond/archiveview/category"
	"github.com/jonwraymond/archiveview/config"
	"github.com/jonwraymond/archiveview/health"
	"github.com/jonwraymond/archiveview/observe"
	"github.com/jonwraymond/archiveview/relation"
	"github.com/jonwraymond/archiveview/resilience"
	"github.com/jonwraymond/archiveview/session"
)

// Version is reported as the service version in telemetry.
var Version = "dev"

// Option configures New.
type Option func(*options)

type options struct {
	output io.Writer
	http   *http.Client
	store  session.Store
}

// WithOutput sends logs and stdout exporter output to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.http = hc
	}
}

// WithStore uses s instead of opening the configured storage. The Viewer
// closes it.
func WithStore(s session.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// Viewer is the assembled data layer.
type Viewer struct {
	obs       observe.Observer
	logger    observe.Logger
	store     session.Store
	sessionID string
	registry  *cache.Registry
	client    *archive.Client
	breaker   *resilience.CircuitBreaker
	public    archive.PublicConfig
	urls      relation.URLConfig
	resolver  *category.Resolver
	posts     *archive.Posts
	health    *health.Aggregator
}

// New assembles a Viewer. Storage that cannot be opened degrades to memory
// only; every other failure is returned.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Viewer, error) {
	if cfg == nil {
		return nil, errors.New("viewer: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obsCfg := cfg.ObserverConfig()
	obsCfg.Version = Version
	obsCfg.Output = o.output
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("viewer: observer: %w", err)
	}
	v := &Viewer{obs: obs, logger: obs.Logger()}

	if err := v.build(ctx, cfg, o); err != nil {
		_ = v.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return v, nil
}

func (v *Viewer) build(ctx context.Context, cfg *config.Config, o options) error {
	metrics, err := observe.MetricsFromObserver(v.obs)
	if err != nil {
		return fmt.Errorf("viewer: metrics: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(v.obs)
	if err != nil {
		return fmt.Errorf("viewer: middleware: %w", err)
	}

	v.openStore(ctx, cfg.Storage, o.store)

	policy := cache.Policy{Capacity: cfg.Cache.Capacity, Persist: cfg.Cache.Persist}
	v.registry = cache.NewRegistry(
		cache.WithPolicy(policy),
		cache.WithStorage(v.store),
		cache.WithLogger(v.logger),
		cache.WithMetrics(metrics),
	)

	exec, breaker := newExecutor(cfg.API, v.logger)
	v.breaker = breaker
	hc := o.http
	if hc == nil {
		hc = &http.Client{}
	}
	v.client, err = archive.NewClient(cfg.API.BaseURL,
		archive.WithHTTPClient(hc),
		archive.WithExecutor(exec),
		archive.WithMiddleware(mw),
		archive.WithLogger(v.logger),
		archive.WithHeaders(cfg.API.Headers),
	)
	if err != nil {
		return err
	}

	explicit := archive.PublicConfig{ImagesURL: cfg.Files.ImagesURL, ResourceURL: cfg.Files.ResourceURL}
	v.public = explicit.WithDefaults()
	if !cfg.Files.SkipPublicConfig {
		// PublicConfig logs its own failure and always returns usable values.
		server, _ := v.client.PublicConfig(ctx)
		v.public = server.Override(explicit)
	}
	scheme, err := cfg.Scheme()
	if err != nil {
		return err
	}
	v.urls = v.public.URLConfig(scheme, cfg.Files.BucketSize)

	v.resolver, err = category.NewResolver(ctx, v.registry, v.client, v.urls)
	if err != nil {
		return err
	}
	v.posts, err = archive.NewPosts(ctx, v.registry, v.client, v.urls)
	if err != nil {
		return err
	}

	v.health = health.NewAggregator(cfg.API.Timeout)
	v.health.Register(v.client.Checker())
	v.health.Register(session.NewChecker(v.store))
	v.health.Register(health.NewCacheChecker(v.registry.Stats))
	if v.breaker != nil {
		v.health.Register(v.breaker.Checker())
	}

	v.logger.Info(ctx, "viewer ready",
		observe.F("api", v.client.BaseURL()),
		observe.F("storage", v.store.Type()),
		observe.F("session", v.sessionID),
		observe.F("images_url", v.urls.ImagesURL),
		observe.F("resource_url", v.urls.ResourceURL),
		observe.F("scheme", v.urls.Scheme.String()),
	)
	return nil
}

// openStore opens session storage, falling back to a store that refuses
// every operation so caches run in memory only.
func (v *Viewer) openStore(ctx context.Context, cfg session.Config, given session.Store) {
	if given != nil {
		v.store = given
		v.sessionID = cfg.ID
		return
	}
	store, id, err := session.Open(ctx, cfg)
	if err != nil {
		v.logger.Warn(ctx, "session storage unavailable, caching in memory only",
			observe.F("type", cfg.Type),
			observe.F("error", err.Error()),
		)
		v.store = session.Unavailable()
		v.sessionID = cfg.ID
		return
	}
	v.store = store
	v.sessionID = id
}

// newExecutor builds the request guards from config. Guards configured with
// zero values are left out.
func newExecutor(cfg config.APIConfig, logger observe.Logger) (*resilience.Executor, *resilience.CircuitBreaker) {
	opts := []resilience.ExecutorOption{resilience.WithTimeout(cfg.Timeout)}

	if cfg.RateLimit.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:    cfg.RateLimit.Rate,
			Burst:   cfg.RateLimit.Burst,
			MaxWait: cfg.RateLimit.MaxWait,
		})))
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.Timeout,
		})))
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Circuit.MaxFailures > 0 {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:         "archive",
			MaxFailures:  cfg.Circuit.MaxFailures,
			ResetTimeout: cfg.Circuit.ResetTimeout,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(context.Background(), "archive circuit changed state",
					observe.F("from", from.String()),
					observe.F("to", to.String()),
				)
			},
		})
		opts = append(opts, resilience.WithCircuitBreaker(breaker))
	}

	if cfg.Retry.MaxAttempts > 1 {
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Jitter:       true,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Debug(context.Background(), "retrying archive request",
					observe.F("attempt", attempt),
					observe.F("delay_ms", delay.Milliseconds()),
					observe.F("error", err.Error()),
				)
			},
		})))
	}

	return resilience.NewExecutor(opts...), breaker
}

// Resolver returns the category resolver.
func (v *Viewer) Resolver() *category.Resolver { return v.resolver }

// Posts returns the post reader.
func (v *Viewer) Posts() *archive.Posts { return v.posts }

// Client returns the API client.
func (v *Viewer) Client() *archive.Client { return v.client }

// Registry returns the cache registry.
func (v *Viewer) Registry() *cache.Registry { return v.registry }

// Health returns the health aggregator.
func (v *Viewer) Health() *health.Aggregator { return v.health }

// Logger returns the logger.
func (v *Viewer) Logger() observe.Logger { return v.logger }

// PublicConfig returns the effective public configuration.
func (v *Viewer) PublicConfig() archive.PublicConfig { return v.public }

// URLConfig returns the file URL settings.
func (v *Viewer) URLConfig() relation.URLConfig { return v.urls }

// SessionID returns the storage session id.
func (v *Viewer) SessionID() string { return v.sessionID }

// StorageType returns the session storage backend in use.
func (v *Viewer) StorageType() string { return v.store.Type() }

// Clear empties the named cache and its persisted record.
func (v *Viewer) Clear(ctx context.Context, name string) error {
	return v.registry.Clear(ctx, name)
}

// ClearAll empties every cache.
func (v *Viewer) ClearAll(ctx context.Context) error {
	return v.registry.ClearAll(ctx)
}

// Close releases storage and flushes telemetry.
func (v *Viewer) Close(ctx context.Context) error {
	var errs []error
	if v.store != nil {
		errs = append(errs, v.store.Close())
	}
	if v.obs != nil {
		errs = append(errs, v.obs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
