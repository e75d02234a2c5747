// Package pg wires PostgreSQL connectivity for the flag store: pool
// construction with startup retries, env-driven configuration, goose
// migrations and a readiness probe. Error helpers map driver-level
// conditions (no rows, unique violations) so callers never import pgx
// internals directly.
package pg
