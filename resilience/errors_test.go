package resilience

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type transientErr struct {
	transient bool
	after     time.Duration
}

func (e transientErr) Error() string             { return fmt.Sprintf("transient=%v", e.transient) }
func (e transientErr) Transient() bool           { return e.transient }
func (e transientErr) RetryAfter() time.Duration { return e.after }

var errTransient = transientErr{transient: true}

// TestIsTransient tests error classification.
func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"transient", errTransient, true},
		{"wrapped transient", fmt.Errorf("get tags: %w", errTransient), true},
		{"permanent", transientErr{transient: false}, false},
		{"timeout", ErrTimeout, true},
		{"joined timeout", errors.Join(ErrTimeout, errors.New("ctx")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestSentinelErrors verifies the sentinel messages.
func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{ErrCircuitOpen, ErrRateLimitExceeded, ErrBulkheadFull, ErrTimeout} {
		if err.Error()[:11] != "resilience:" {
			t.Errorf("%q lacks the resilience: prefix", err)
		}
	}
}
