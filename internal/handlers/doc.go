// Package handlers contains the HTTP handlers for the vault API:
// authentication, upload ingestion, image and tag management, blob
// serving, and the health/version endpoints.
package handlers
