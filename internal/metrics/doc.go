// Package metrics defines the Prometheus instrumentation for the vault:
// HTTP traffic, database queries, the ingestion pipeline, and best-effort
// enrichment outcomes.
package metrics
