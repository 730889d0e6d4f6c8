// Package geocode resolves GPS coordinates to human-readable addresses
// through an external reverse-geocoding service. Resolution is pure
// best-effort enrichment: every failure collapses to a nil address.
package geocode
