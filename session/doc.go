// Package session provides the per-session record stores that fetch caches
// persist their snapshots into.
//
// A session is identified by an id; every backend scopes its records by that
// id, so two sessions never see each other's caches. Backends:
//
//   - memory: process-local map, lost on exit
//   - file: one JSON file per record under <path>/<session id>/
//   - redis: one key per record, expiring after the configured TTL
//   - sqlite: one row per record in a local database file
//   - none: always unavailable, forcing memory-only caching
//
// Every backend error wraps ErrUnavailable.
package session
