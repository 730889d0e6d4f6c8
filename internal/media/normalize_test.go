package media

import (
	"bytes"
	"testing"
)

func TestNormalizePassthrough(t *testing.T) {
	data := testJPEG(t, 100, 100)

	result, err := Normalize(data, "photo.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if result.Converted {
		t.Error("plain JPEG must not be marked converted")
	}
	if !bytes.Equal(result.Data, data) {
		t.Error("passthrough must not modify the buffer")
	}
	if result.Filename != "photo.jpg" || result.MimeType != "image/jpeg" {
		t.Errorf("passthrough changed name/mime: %s %s", result.Filename, result.MimeType)
	}
}

func TestNormalizeSpecialFormatFailureIsFatal(t *testing.T) {
	// A buffer claiming to be HEIC that vips cannot decode: the upload
	// must fail with the conversion sentinel rather than pass through.
	_, err := Normalize([]byte("definitely not heic"), "IMG_0001.HEIC", "image/heic")
	if err == nil {
		t.Fatal("expected conversion error for undecodable special format")
	}
}

func TestRewriteExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"IMG_0001.HEIC", "IMG_0001.jpg"},
		{"photo.heif", "photo.jpg"},
		{"archive.tar.heic", "archive.tar.jpg"},
		{"noext", "noext.jpg"},
	}
	for _, tt := range tests {
		if got := rewriteExtension(tt.name, ".jpg"); got != tt.want {
			t.Errorf("rewriteExtension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
