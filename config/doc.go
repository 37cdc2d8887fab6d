// Package config loads archiveview settings.
//
// Sources are applied in order, each overriding the last:
//
//  1. Defaults.
//  2. An optional YAML file.
//  3. An optional .env file, which only seeds variables not already set.
//  4. Environment variables prefixed with ARCHIVEVIEW_, for example
//     ARCHIVEVIEW_API_BASE_URL or ARCHIVEVIEW_STORAGE_TYPE.
//  5. Secret references in sensitive fields (see package secret).
//
// The result is validated before it is returned.
package config
