// Package ingest sequences the upload and edit pipelines: format
// normalization, metadata extraction, thumbnail derivation, blob and
// record persistence, and post-commit best-effort enrichment.
package ingest
