package mediatypes

import "testing"

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"photo.png", "image/png"},
		{"anim.gif", "image/gif"},
		{"modern.webp", "image/webp"},
		{"vector.svg", "image/svg+xml"},
		{"apple.heic", "image/heic"},
		{"unknown.xyz", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := ContentTypeFor(tt.filename); got != tt.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestIsSpecialFormat(t *testing.T) {
	tests := []struct {
		filename string
		mimeType string
		want     bool
	}{
		{"IMG_0001.HEIC", "", true},
		{"img.heic", "image/heic", true},
		{"img.heif", "", true},
		{"img.jpg", "image/heic", true},
		{"img.jpg", "IMAGE/HEIF", true},
		{"img.jpg", "image/jpeg", false},
		{"img.png", "", false},
		{"heic.png", "", false},
	}

	for _, tt := range tests {
		if got := IsSpecialFormat(tt.filename, tt.mimeType); got != tt.want {
			t.Errorf("IsSpecialFormat(%q, %q) = %v, want %v", tt.filename, tt.mimeType, got, tt.want)
		}
	}
}
