// Package relation resolves the related entities an archive payload carries
// inline into constant-time lookup tables.
//
// Every API response may embed a relation bag (file_metas, platforms, tags,
// authors, collections). Build turns a bag into a frozen Map; Memo rebuilds
// the Map only when the raw payload bytes change.
package relation
