package archive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/archiveview/query"
	"github.com/jonwraymond/archiveview/resilience"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// TestNewClient tests base URL validation.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{name: "api path", base: "http://example.com/api", want: "http://example.com/api/"},
		{name: "trailing slash", base: "https://example.com/api/", want: "https://example.com/api/"},
		{name: "root", base: "http://example.com", want: "http://example.com/"},
		{name: "query dropped", base: "http://example.com/api?x=1", want: "http://example.com/api/"},
		{name: "relative", base: "/api", wantErr: true},
		{name: "ftp", base: "ftp://example.com/api", wantErr: true},
		{name: "unparseable", base: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.base)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBaseURL) {
					t.Fatalf("NewClient(%q) error = %v, want ErrInvalidBaseURL", tt.base, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient(%q) error = %v", tt.base, err)
			}
			if got := c.BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestClient_Fetch tests request construction and body handling.
func TestClient_Fetch(t *testing.T) {
	var gotPath, gotQuery, gotAccept, gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(` {"id":3,"name":"go"} `))
	}), WithHeader("Authorization", "Bearer abc"))

	raw, err := c.Fetch(context.Background(), Request{
		Endpoint: "tags",
		Path:     "tags",
		Params:   query.Params{}.Add("search", "go").Add("tags", []int64{1, 2}).Add("empty", ""),
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(raw) != `{"id":3,"name":"go"}` {
		t.Errorf("body = %q, want trimmed json", raw)
	}
	if gotPath != "/api/tags" {
		t.Errorf("path = %q, want /api/tags", gotPath)
	}
	if gotQuery != "search=go&tags=1&tags=2" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

// TestClient_Fetch_MissingEndpoint tests that requests must name an endpoint.
func TestClient_Fetch_MissingEndpoint(t *testing.T) {
	c := newTestClient(t, respond(200, `{}`))
	if _, err := c.Fetch(context.Background(), Request{Path: "tags"}); !errors.Is(err, ErrMissingEndpoint) {
		t.Errorf("Fetch() error = %v, want ErrMissingEndpoint", err)
	}
}

// TestClient_Fetch_Absent tests that 404, null and empty bodies are absent.
func TestClient_Fetch_Absent(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "404", handler: respond(http.StatusNotFound, `not found`)},
		{name: "null", handler: respond(http.StatusOK, `null`)},
		{name: "empty", handler: respond(http.StatusOK, ``)},
		{name: "whitespace", handler: respond(http.StatusOK, " \n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			raw, err := c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags/9"})
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if !IsAbsent(raw) {
				t.Errorf("IsAbsent(%q) = false", raw)
			}
		})
	}
}

// TestClient_Fetch_Errors tests failure classification.
func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantIs        error
		wantTransient bool
		wantStatus    int
	}{
		{name: "500", handler: respond(500, `{}`), wantIs: ErrNetworkFailure, wantTransient: true, wantStatus: 500},
		{name: "503", handler: respond(503, ``), wantIs: ErrNetworkFailure, wantTransient: true, wantStatus: 503},
		{name: "429", handler: respond(429, ``), wantIs: ErrNetworkFailure, wantTransient: true, wantStatus: 429},
		{name: "400", handler: respond(400, ``), wantIs: ErrNetworkFailure, wantStatus: 400},
		{name: "403", handler: respond(403, ``), wantIs: ErrNetworkFailure, wantStatus: 403},
		{name: "invalid json", handler: respond(200, `{"id":`), wantIs: ErrMalformedResponse},
		{name: "html", handler: respond(200, `<html></html>`), wantIs: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags"})
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.wantIs)
			}
			if got := resilience.IsTransient(err); got != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.wantTransient)
			}
			var se *StatusError
			if tt.wantStatus == 0 {
				if errors.As(err, &se) {
					t.Errorf("unexpected StatusError %v", se)
				}
				return
			}
			if !errors.As(err, &se) || se.Code != tt.wantStatus {
				t.Errorf("StatusError = %v, want code %d", se, tt.wantStatus)
			}
		})
	}
}

// TestClient_Fetch_BodyTooLarge tests the body size cap.
func TestClient_Fetch_BodyTooLarge(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"`))
		_, _ = w.Write([]byte(strings.Repeat("a", MaxBodySize)))
		_, _ = w.Write([]byte(`"`))
	}))
	_, err := c.Fetch(context.Background(), Request{Endpoint: "posts", Path: "posts/1"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Fetch() error = %v, want ErrMalformedResponse", err)
	}
}

// TestClient_Fetch_TransportError tests unreachable servers.
func TestClient_Fetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(respond(200, `{}`))
	base := srv.URL
	srv.Close()

	c, err := NewClient(base)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	_, err = c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags"})
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("Fetch() error = %v, want ErrNetworkFailure", err)
	}
	if !resilience.IsTransient(err) {
		t.Error("transport error should be transient")
	}
}

// TestClient_Fetch_Canceled tests that a canceled caller is not retried.
func TestClient_Fetch_Canceled(t *testing.T) {
	c := newTestClient(t, respond(200, `{}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, Request{Endpoint: "tags", Path: "tags"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v, want context.Canceled", err)
	}
	if resilience.IsTransient(err) {
		t.Error("canceled request should not be transient")
	}
}

// TestClient_Fetch_Retry tests that the executor retries transient failures.
func TestClient_Fetch_Retry(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[1]`))
	})
	exec := resilience.NewExecutor(resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})))
	c := newTestClient(t, h, WithExecutor(exec))

	raw, err := c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(raw) != `[1]` {
		t.Errorf("body = %q", raw)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

// TestClient_Fetch_NoRetryOnClientError tests that 4xx is returned at once.
func TestClient_Fetch_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})
	exec := resilience.NewExecutor(resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})))
	c := newTestClient(t, h, WithExecutor(exec))

	if _, err := c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags"}); err == nil {
		t.Fatal("Fetch() error = nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

// TestClient_NotFoundDoesNotTripBreaker tests that absent results are
// successes as far as the circuit breaker is concerned.
func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1})
	c := newTestClient(t, respond(http.StatusNotFound, ``),
		WithExecutor(resilience.NewExecutor(resilience.WithCircuitBreaker(cb))))

	for range 3 {
		if _, err := c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags/1"}); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if cb.State() != resilience.StateClosed {
		t.Errorf("breaker state = %v, want closed", cb.State())
	}
}

// TestClient_ServerErrorsTripBreaker tests that 5xx responses open the circuit.
func TestClient_ServerErrorsTripBreaker(t *testing.T) {
	var calls atomic.Int32
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), WithExecutor(resilience.NewExecutor(resilience.WithCircuitBreaker(cb))))

	for range 2 {
		_, _ = c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags"})
	}
	_, err := c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Fetch() error = %v, want ErrCircuitOpen", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

// TestParseRetryAfter tests Retry-After parsing.
func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{now.Add(-10 * time.Second).Format(http.TimeFormat), 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.value, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestStatusError_RetryAfter tests that the header reaches the error.
func TestStatusError_RetryAfter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	_, err := c.Fetch(context.Background(), Request{Endpoint: "tags", Path: "tags"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Fetch() error = %v, want StatusError", err)
	}
	if se.RetryAfter() != 7*time.Second {
		t.Errorf("RetryAfter() = %v, want 7s", se.RetryAfter())
	}
}

// TestDecode tests malformed classification of shape mismatches.
func TestDecode(t *testing.T) {
	var v struct {
		ID int64 `json:"id"`
	}
	if err := Decode([]byte(`{"id":4}`), &v); err != nil || v.ID != 4 {
		t.Fatalf("Decode() = %v, id %d", err, v.ID)
	}
	if err := Decode([]byte(`{"id":"four"}`), &v); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Decode() error = %v, want ErrMalformedResponse", err)
	}
}
