// Package secret resolves secret references in configuration values, so a
// Redis password or an API header never has to sit in a config file.
//
// Values are first expanded strictly against the environment (${VAR} must be
// set; $$ is a literal dollar). References then take the form
// "secretref:<provider>:<ref>", either as the whole value or inline:
//
//	redis_url: secretref:file:/run/secrets/redis_url
//	headers:
//	  Authorization: Bearer secretref:env:ARCHIVE_TOKEN
//
// Built-in providers are "env" and "file".
package secret
