// Package query builds request URLs for the archive API.
//
// Parameters are serialized with repeated names for slice values and absent
// values are omitted, so a filter such as {search: "a b", tags: [1, 2]}
// encodes as "search=a+b&tags=1&tags=2".
package query
