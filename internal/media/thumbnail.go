package media

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Thumbnail generation defaults.
const (
	DefaultThumbnailMaxWidth = 400
	DefaultThumbnailQuality  = 85
)

// ThumbnailName derives the deterministic thumbnail filename for an
// upload: the original name with a "thumb-" prefix.
func ThumbnailName(filename string) string {
	return "thumb-" + filename
}

// GenerateThumbnail derives a bounded-width, quality-capped JPEG
// preview from a raster buffer. The aspect ratio is preserved and the
// image is never upscaled past its original width. Failure here is
// fatal to the ingestion: no record is committed without a thumbnail.
func GenerateThumbnail(data []byte, maxWidth, quality int) ([]byte, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbnailMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultThumbnailQuality
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ProbeDimensions reads the pixel dimensions of a raster buffer without
// decoding the full image. Used as the fallback when metadata carries
// no dimensions, and by the edit path to re-probe edited bytes.
func ProbeDimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to probe image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
