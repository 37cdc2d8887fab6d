// Package archive talks to the archive server's read-only JSON API.
//
// A Client performs GET requests against the API base, normalizes the
// response and classifies failures:
//
//   - 404 and empty bodies become the JSON literal null, which callers treat
//     as an absent result rather than an error.
//   - Transport errors and other non-2xx statuses wrap ErrNetworkFailure.
//     5xx, 408 and 429 responses are transient and may be retried by the
//     resilience executor; other 4xx responses are not.
//   - Bodies that are not valid JSON, or exceed the size cap, wrap
//     ErrMalformedResponse.
//
// Every request runs through an optional resilience.Executor and an optional
// observe.Middleware, so rate limits, circuit breaking, retries, spans,
// metrics and fetch logs all apply uniformly.
//
// Posts layers fetch caches over the post endpoints. Category entities live
// in package category.
package archive
