package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/archiveview/resilience"
)

// unavailable is a transient failure such as a 503.
type unavailable struct{}

func (unavailable) Error() string   { return "503 service unavailable" }
func (unavailable) Transient() bool { return true }

func ExampleDo() {
	exec := resilience.NewExecutor(
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
		})),
		resilience.WithTimeout(time.Second),
	)

	attempts := 0
	body, err := resilience.Do(context.Background(), exec, func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", unavailable{}
		}
		return `{"id":1}`, nil
	})
	fmt.Println(body, err, attempts)
	// Output: {"id":1} <nil> 3
}

func ExampleNewCircuitBreaker() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "archive",
		MaxFailures: 2,
	})

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return unavailable{} })
		fmt.Println(errors.Is(err, resilience.ErrCircuitOpen), cb.State())
	}
	// Output:
	// false closed
	// false open
	// true open
}
