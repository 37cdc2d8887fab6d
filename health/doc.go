// Package health reports whether the pieces an archive viewer depends on are
// usable: the archive API, session storage and the fetch caches.
//
// A Checker reports one component. An Aggregator runs several checkers
// concurrently under one deadline and folds their results into a Report:
//
//	agg := health.NewAggregator()
//	agg.Register(client.Checker())
//	agg.Register(session.NewChecker(store))
//	agg.Register(health.NewCacheChecker(registry.Stats))
//
//	report := agg.Run(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    os.Exit(1)
//	}
//
// Degraded means the viewer still works with reduced function, for example
// caching in memory only after session storage failed.
package health
