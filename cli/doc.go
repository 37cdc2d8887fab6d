// Package cli implements the archiveview command: one-shot reads against an
// archive API through the same cached data layer a viewer uses.
//
// Usage:
//
//	archiveview [flags] <command> [args]
//
// Commands:
//
//	get <kind> <id>      resolve one author, tag, platform or collection
//	list <kind> [flags]  list a page of categories
//	post <id>            show a post with its relations
//	posts [flags]        search posts
//	summary              show archive-wide counts
//	config               show the effective file URL settings
//	caches               show cache occupancy
//	clear <name>|all     drop a cache and its persisted record
//	health               run the health checks
//
// Settings come from the -config YAML file, a .env file and ARCHIVEVIEW_*
// environment variables. With persistent session storage and a fixed
// ARCHIVEVIEW_STORAGE_ID, repeated invocations reuse cached responses.
package cli
