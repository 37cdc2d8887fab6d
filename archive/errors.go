package archive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrNetworkFailure wraps transport errors and non-2xx responses.
	ErrNetworkFailure = errors.New("archive: network failure")

	// ErrMalformedResponse is returned when a body is not the expected JSON.
	ErrMalformedResponse = errors.New("archive: malformed response")

	// ErrInvalidBaseURL is returned by NewClient for unusable base URLs.
	ErrInvalidBaseURL = errors.New("archive: invalid base url")

	// ErrMissingEndpoint is returned for requests without an endpoint name.
	ErrMissingEndpoint = errors.New("archive: missing endpoint")
)

// StatusError is a non-2xx, non-404 response.
type StatusError struct {
	Code  int
	URL   string
	After time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("archive: unexpected status %d from %s", e.Code, e.URL)
}

// Unwrap makes every StatusError match ErrNetworkFailure.
func (e *StatusError) Unwrap() error {
	return ErrNetworkFailure
}

// Transient reports whether the server may answer differently later.
func (e *StatusError) Transient() bool {
	switch {
	case e.Code >= 500:
		return true
	case e.Code == http.StatusTooManyRequests, e.Code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}

// RetryAfter returns the delay the server asked for, if any.
func (e *StatusError) RetryAfter() time.Duration {
	return e.After
}

// transportError is a request that never produced a response.
type transportError struct {
	url string
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%v: GET %s: %v", ErrNetworkFailure, e.url, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrNetworkFailure, e.err}
}

// Transient is false once the caller gave up.
func (e *transportError) Transient() bool {
	return !errors.Is(e.err, context.Canceled)
}

func malformed(url, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, url, fmt.Sprintf(format, args...))
}

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
