// Package mediatypes holds the fixed format tables shared by the
// ingestion pipeline and the upload-serving route.
package mediatypes
