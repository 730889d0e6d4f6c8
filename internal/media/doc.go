// Package media implements the raster stages of the ingestion pipeline:
// special-format normalization (libvips), capture-metadata extraction
// from the original bytes, thumbnail derivation, and dimension probing.
package media
