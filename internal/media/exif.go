package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"photo-vault/internal/logging"
)

func init() {
	// Maker-note parsers improve field coverage for common cameras
	exif.RegisterParsers(mknote.All...)
}

// exifTimeLayout is the timestamp format used by EXIF date fields.
const exifTimeLayout = "2006:01:02 15:04:05"

// Metadata holds the capture metadata projected out of an upload's
// original bytes. Pointer fields are nil when the source did not carry
// them; TakenAt always holds a value (defaulted to the ingestion time).
type Metadata struct {
	TakenAt      time.Time
	Camera       *string
	LensModel    *string
	Aperture     *float64
	ShutterSpeed *string
	ISO          *int
	Location     *string
	Width        int
	Height       int

	// Raw is the complete parsed field set as an opaque JSON snapshot,
	// retained even when the typed projections above are nil.
	Raw json.RawMessage
}

// ExtractMetadata parses embedded capture metadata from the original
// (pre-normalization) bytes. Every field is extracted independently and
// tolerates absence; a missing or malformed metadata block yields the
// defaults. This never fails the upload.
func ExtractMetadata(data []byte, now time.Time) *Metadata {
	meta := &Metadata{TakenAt: now}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		if err != exif.ErrNoExif {
			logging.Debug("exif decode failed: %v", err)
		}
		return meta
	}

	// Timestamp resolution chain: original capture, then creation, then
	// the ingestion wall clock already in place.
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		if ts, ok := exifTime(x, field); ok {
			meta.TakenAt = ts
			break
		}
	}

	if camera := cameraString(x); camera != "" {
		meta.Camera = &camera
	}

	if lens, ok := exifString(x, exif.LensModel); ok {
		meta.LensModel = &lens
	}

	if f, ok := exifRat(x, exif.FNumber); ok {
		meta.Aperture = &f
	}

	if v, ok := exifRat(x, exif.ExposureTime); ok {
		s := formatShutterSpeed(v)
		meta.ShutterSpeed = &s
	}

	if iso, ok := exifInt(x, exif.ISOSpeedRatings); ok {
		meta.ISO = &iso
	}

	if lat, lng, err := x.LatLong(); err == nil {
		loc := formatGPS(lat, lng)
		meta.Location = &loc
	}

	if w, ok := exifInt(x, exif.PixelXDimension); ok {
		meta.Width = w
	}
	if h, ok := exifInt(x, exif.PixelYDimension); ok {
		meta.Height = h
	}

	meta.Raw = snapshotFields(x)
	return meta
}

// formatShutterSpeed renders an exposure time for display. Fractional
// values strictly between 0 and 1 become "1/<n>"; everything else is
// the numeric value rendered directly.
func formatShutterSpeed(v float64) string {
	if v > 0 && v < 1 {
		return fmt.Sprintf("1/%d", int(math.Round(1/v)))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatGPS renders a coordinate pair with six decimal places.
func formatGPS(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

// cameraString joins the make and model fields, skipping absent ones.
func cameraString(x *exif.Exif) string {
	var parts []string
	if mk, ok := exifString(x, exif.Make); ok {
		parts = append(parts, mk)
	}
	if model, ok := exifString(x, exif.Model); ok {
		parts = append(parts, model)
	}
	return strings.Join(parts, " ")
}

func exifString(x *exif.Exif, field exif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return "", false
	}
	val, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

func exifInt(x *exif.Exif, field exif.FieldName) (int, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	val, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return val, true
}

func exifRat(x *exif.Exif, field exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	num, denom, err := tag.Rat2(0)
	if err != nil || denom == 0 {
		return 0, false
	}
	return float64(num) / float64(denom), true
}

func exifTime(x *exif.Exif, field exif.FieldName) (time.Time, bool) {
	val, ok := exifString(x, field)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(exifTimeLayout, val, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// fieldCollector gathers every parsed EXIF field for the opaque snapshot.
type fieldCollector map[string]string

func (c fieldCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c[string(name)] = tag.String()
	return nil
}

func snapshotFields(x *exif.Exif) json.RawMessage {
	fields := fieldCollector{}
	if err := x.Walk(fields); err != nil {
		logging.Debug("exif field walk failed: %v", err)
	}
	if len(fields) == 0 {
		return nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return raw
}
