// Package viewer wires the archive data layer together from a config.Config.
//
// A Viewer owns the observer, session storage, cache registry, API client,
// category resolver and post caches. It is what a UI or command line front
// end holds for the lifetime of a session.
package viewer
