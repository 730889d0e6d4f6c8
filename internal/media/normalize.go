package media

import (
	"fmt"
	"strings"

	"photo-vault/internal/logging"
	"photo-vault/internal/mediatypes"
	"photo-vault/internal/metrics"
)

// ConversionQuality is the JPEG quality factor used when transcoding a
// camera-native container to the baseline format.
const ConversionQuality = 90

// ErrConversion marks a failed special-format transcode. The upload
// cannot proceed; the user should pre-convert the file manually.
var ErrConversion = fmt.Errorf("format conversion failed")

// Normalized is the outcome of format normalization: the working
// buffer, filename, and MIME type for the rest of the pipeline.
type Normalized struct {
	Data      []byte
	Filename  string
	MimeType  string
	Converted bool
}

// Normalize detects camera-native container formats (HEIC/HEIF) by
// extension or declared MIME type and transcodes them to baseline JPEG.
// On success the working filename extension and MIME type are rewritten
// to the baseline format. Inputs that need no special handling pass
// through unchanged.
//
// A failed conversion of a detected special format is fatal to the
// upload; callers surface it with errors.Is(err, ErrConversion).
func Normalize(data []byte, filename, mimeType string) (*Normalized, error) {
	if !mediatypes.IsSpecialFormat(filename, mimeType) {
		return &Normalized{Data: data, Filename: filename, MimeType: mimeType}, nil
	}

	logging.Info("converting special-format upload %s (%s) to JPEG", filename, mimeType)

	converted, err := transcodeToJpeg(data, ConversionQuality)
	if err != nil {
		metrics.FormatConversionsTotal.WithLabelValues("error").Inc()
		logging.Error("special-format conversion failed for %s: %v", filename, err)
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	metrics.FormatConversionsTotal.WithLabelValues("success").Inc()

	return &Normalized{
		Data:      converted,
		Filename:  rewriteExtension(filename, ".jpg"),
		MimeType:  "image/jpeg",
		Converted: true,
	}, nil
}

// rewriteExtension swaps the extension of name for newExt (which must
// include the dot). Names without an extension get newExt appended.
func rewriteExtension(name, newExt string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx] + newExt
	}
	return name + newExt
}
