package mediatypes

import (
	"path/filepath"
	"strings"
)

// ContentTypes is the fixed extension to content-type table used by the
// upload-serving route. Anything not listed is served as a generic
// binary stream.
var ContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".heic": "image/heic",
}

// SpecialFormatExtensions lists camera-native container formats that
// must be transcoded to the baseline raster format before web display.
var SpecialFormatExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

// SpecialFormatMimeTypes lists declared MIME types that identify a
// camera-native container regardless of the filename.
var SpecialFormatMimeTypes = map[string]bool{
	"image/heic": true,
	"image/heif": true,
}

// ContentTypeFor returns the content type for a filename, falling back
// to application/octet-stream for unknown extensions.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := ContentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsSpecialFormat reports whether the filename or declared MIME type
// identifies a camera-native container. Matching is case-insensitive.
func IsSpecialFormat(filename, mimeType string) bool {
	if SpecialFormatExtensions[strings.ToLower(filepath.Ext(filename))] {
		return true
	}
	return SpecialFormatMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}
