package health_test

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonwraymond/archiveview/health"
)

func ExampleAggregator_Run() {
	agg := health.NewAggregator()
	agg.Register(health.NewCheckerFunc("archive", func(context.Context) health.Result {
		return health.Healthy("reachable")
	}))
	agg.Register(health.NewCheckerFunc("session", func(context.Context) health.Result {
		return health.Degraded("caching in memory only")
	}))

	report := agg.Run(context.Background())
	fmt.Println("overall:", report.Status)
	for _, c := range report.Checks {
		fmt.Println(c.Name, c.Status)
	}
	// Output:
	// overall: degraded
	// archive healthy
	// session degraded
}

func ExampleReport_WriteText() {
	report := health.NewReport(
		[]string{"archive"},
		[]health.Result{health.Unhealthy("unreachable", errors.New("connection refused"))},
	)
	report.Checks[0].Duration = "1ms"
	_ = report.WriteText(os.Stdout)
	// Output:
	// overall  unhealthy
	// archive  unhealthy  1ms  unreachable: connection refused
}
