// Package cache provides the fetch cache behind every archive lookup.
//
// It provides a bounded LRU store, a FetchCache that coalesces concurrent
// requests per key and persists settled entries to session storage, a
// Registry that owns cache names, and a View for stale-while-revalidate reads.
package cache
