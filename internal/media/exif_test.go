package media

import (
	"testing"
	"time"
)

func TestFormatShutterSpeed(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0.01, "1/100"},
		{2, "2"},
		{0.5, "1/2"},
		{1.0 / 125.0, "1/125"},
		{0.0005, "1/2000"},
		{1, "1"},
		{1.5, "1.5"},
		{30, "30"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatShutterSpeed(tt.value); got != tt.want {
			t.Errorf("formatShutterSpeed(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatGPS(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     string
	}{
		{37.865101, -119.53833, "37.865101, -119.538330"},
		{0, 0, "0.000000, 0.000000"},
		{-33.8688197, 151.2092955, "-33.868820, 151.209296"},
	}

	for _, tt := range tests {
		if got := formatGPS(tt.lat, tt.lng); got != tt.want {
			t.Errorf("formatGPS(%v, %v) = %q, want %q", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestExtractMetadataMalformedInput(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty buffer", nil},
		{"garbage bytes", []byte("this is not an image at all")},
		{"truncated jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ExtractMetadata(tt.data, now)
			if meta == nil {
				t.Fatal("ExtractMetadata returned nil")
			}
			// Everything falls back to defaults; the pipeline proceeds.
			if !meta.TakenAt.Equal(now) {
				t.Errorf("expected TakenAt defaulted to %v, got %v", now, meta.TakenAt)
			}
			if meta.Camera != nil || meta.LensModel != nil || meta.Aperture != nil ||
				meta.ShutterSpeed != nil || meta.ISO != nil || meta.Location != nil {
				t.Error("expected all typed fields nil for malformed input")
			}
			if meta.Width != 0 || meta.Height != 0 {
				t.Errorf("expected zero dimensions, got %dx%d", meta.Width, meta.Height)
			}
		})
	}
}

func TestExtractMetadataPlainJPEGWithoutExif(t *testing.T) {
	now := time.Now()
	meta := ExtractMetadata(testJPEG(t, 100, 80), now)

	if !meta.TakenAt.Equal(now) {
		t.Errorf("expected TakenAt defaulted for exif-less JPEG, got %v", meta.TakenAt)
	}
	if meta.Camera != nil {
		t.Errorf("expected nil camera, got %v", *meta.Camera)
	}
}
