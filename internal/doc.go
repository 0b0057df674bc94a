// Package internal documents the event portal server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses and routing
// - domain: event normalization, listing, calendar export and reminders
// - storage: Postgres repository, migrations and image object storage
// - auth, audit, cache, config, email, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
