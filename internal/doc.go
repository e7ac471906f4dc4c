// Package internal documents the eventreg server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses and routing
// - domain: users, events and registration admission
// - storage: SQLite and PostgreSQL stores, migrations and seeding
// - audit, config, metrics, telemetry, sanitize, validation: shared infrastructure
// - loadtest: traffic generator used by the loadtest command
//
// Code in internal/ is not meant for external import.
package internal
