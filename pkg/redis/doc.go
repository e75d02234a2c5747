// Package redis wires Redis connectivity for the shared decision cache:
// env-driven configuration, client construction with startup retries and a
// readiness probe.
package redis
