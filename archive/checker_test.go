package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonwraymond/archiveview/health"
)

// TestChecker tests the API health probe.
func TestChecker(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string]http.HandlerFunc
		want   health.Status
	}{
		{
			name:   "config served",
			routes: map[string]http.HandlerFunc{"/config.json": respond(200, `{}`)},
			want:   health.StatusHealthy,
		},
		{
			name:   "fallback config served",
			routes: map[string]http.HandlerFunc{"/api/config.json": respond(200, `{}`)},
			want:   health.StatusHealthy,
		},
		{
			name:   "reachable without config",
			routes: map[string]http.HandlerFunc{},
			want:   health.StatusDegraded,
		},
		{
			name: "server errors",
			routes: map[string]http.HandlerFunc{
				"/config.json":     respond(500, ``),
				"/api/config.json": respond(500, ``),
			},
			want: health.StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			for path, h := range tt.routes {
				mux.Handle(path, h)
			}
			c := newTestClient(t, mux)

			ch := c.Checker()
			if ch.Name() != "archive" {
				t.Errorf("Name() = %q", ch.Name())
			}
			r := ch.Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("Check() status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
			if r.Details["base_url"] != c.BaseURL() {
				t.Errorf("details = %v", r.Details)
			}
		})
	}
}

// TestChecker_Unreachable tests a server that is down.
func TestChecker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(respond(200, `{}`))
	base := srv.URL
	srv.Close()

	c, err := NewClient(base)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	r := c.Checker().Check(context.Background())
	if r.Status != health.StatusUnhealthy || r.Error == nil {
		t.Errorf("Check() = %v, %v; want unhealthy with error", r.Status, r.Error)
	}
}
