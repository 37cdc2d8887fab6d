package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/archiveview/observe"
	"github.com/jonwraymond/archiveview/query"
	"github.com/jonwraymond/archiveview/resilience"
)

// MaxBodySize caps how much of a response body is read.
const MaxBodySize = 10 * 1024 * 1024

// DefaultTimeout bounds a whole request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

var null = []byte("null")

// Request names one GET against the API base.
type Request struct {
	Endpoint string       // logical endpoint for telemetry, e.g. "tags" (required)
	Path     string       // path relative to the API base, e.g. "tags/3"
	Params   query.Params // query parameters
	Cache    string       // name of the fetch cache issuing the request
	Key      string       // cache key of the request
}

// Client performs JSON GET requests against the archive API.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: every request honors ctx cancellation.
//   - Errors: see the package documentation for classification.
type Client struct {
	base    *url.URL
	http    *http.Client
	exec    *resilience.Executor
	mw      *observe.Middleware
	logger  observe.Logger
	headers http.Header
	fetch   observe.FetchFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithExecutor routes every request through e.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *Client) {
		c.exec = e
	}
}

// WithMiddleware wraps every attempt with tracing, metrics and logging.
func WithMiddleware(m *observe.Middleware) Option {
	return func(c *Client) {
		c.mw = m
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithHeaders adds several headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers.Add(k, v)
		}
	}
}

// NewClient creates a client for the API rooted at baseURL, for example
// "https://archive.example.com/api".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be an absolute http(s) url", ErrInvalidBaseURL, baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		base:    u,
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = observe.NopLogger()
	}
	c.fetch = c.do
	if c.mw != nil {
		c.fetch = c.mw.Wrap(c.do)
	}
	return c, nil
}

// BaseURL returns the API base, always ending in a slash.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Executor returns the resilience executor, or nil.
func (c *Client) Executor() *resilience.Executor {
	return c.exec
}

// Fetch performs req and returns the raw JSON body. Absent resources come
// back as the literal null.
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if req.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	u, err := query.Resolve(c.base, strings.TrimPrefix(req.Path, "/"), req.Params)
	if err != nil {
		return nil, fmt.Errorf("archive: build %s url: %w", req.Endpoint, err)
	}
	return c.get(ctx, req, u)
}

// FetchURL performs req against an explicit path resolved from the origin
// of the API base rather than from the base itself.
func (c *Client) FetchURL(ctx context.Context, req Request) ([]byte, error) {
	if req.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	origin := &url.URL{Scheme: c.base.Scheme, Host: c.base.Host, Path: "/"}
	u, err := query.Resolve(origin, req.Path, req.Params)
	if err != nil {
		return nil, fmt.Errorf("archive: build %s url: %w", req.Endpoint, err)
	}
	return c.get(ctx, req, u)
}

func (c *Client) get(ctx context.Context, req Request, u *url.URL) ([]byte, error) {
	meta := observe.FetchMeta{
		Endpoint: req.Endpoint,
		Cache:    req.Cache,
		Key:      req.Key,
		URL:      u.String(),
	}
	return resilience.Do(ctx, c.exec, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, meta)
	})
}

func (c *Client) do(ctx context.Context, meta observe.FetchMeta) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transportError{url: meta.URL, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))
		return null, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))
		return nil, &StatusError{
			Code:  resp.StatusCode,
			URL:   meta.URL,
			After: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, &transportError{url: meta.URL, err: fmt.Errorf("read body: %w", err)}
	}
	if len(raw) > MaxBodySize {
		return nil, malformed(meta.URL, "body exceeds %d bytes", MaxBodySize)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return null, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, malformed(meta.URL, "body is not valid json")
	}
	return raw, nil
}

// IsAbsent reports whether raw is the JSON literal null.
func IsAbsent(raw []byte) bool {
	return gjson.ParseBytes(raw).Type == gjson.Null
}

// Decode unmarshals raw into v, reporting shape mismatches as
// ErrMalformedResponse.
func Decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// ItemPath returns "{route}/{id}".
func ItemPath(route string, id int64) string {
	return route + "/" + strconv.FormatInt(id, 10)
}
