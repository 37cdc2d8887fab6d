// Package category resolves the four browsable entity kinds of an archive:
// authors, tags, platforms and collections.
//
// Each kind is served by a Source with two fetch caches, one for single
// items keyed "{kind}-{id}" and one for list pages keyed
// "{kind}-{search}-{page}-{limit}". An id the server does not know resolves
// to a nil entity, which is cached like any other result. Every entity of a
// fetched list page is also written into the item cache, so opening an entry
// seen in a list needs no further request.
//
// Entities reference related records (thumbnails, a tag's platform) through
// the relation bag inlined in the response they were built from.
package category
