package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"photo-vault/internal/database"
	"photo-vault/internal/geocode"
	"photo-vault/internal/logging"
	"photo-vault/internal/media"
	"photo-vault/internal/mediatypes"
	"photo-vault/internal/metrics"
	"photo-vault/internal/tagging"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrEmptyUpload is returned for a missing or zero-length file.
	ErrEmptyUpload = errors.New("no file uploaded")
	// ErrThumbnail marks a failed thumbnail derivation. No record is
	// committed without a usable thumbnail.
	ErrThumbnail = errors.New("thumbnail generation failed")
	// ErrForbidden is returned when the requester does not own the
	// image being edited.
	ErrForbidden = errors.New("forbidden")
)

// Pipeline sequences ingestion for new uploads and reprocessing for
// edits: normalization, metadata extraction, thumbnail derivation,
// persistence, and post-commit best-effort enrichment.
type Pipeline struct {
	db        *database.Database
	tagger    *tagging.Synthesizer
	geocoder  *geocode.Resolver
	uploadDir string
	thumbMaxW int
	thumbQ    int
}

// New creates a Pipeline writing blobs under uploadDir. The directory
// is created if missing.
func New(db *database.Database, tagger *tagging.Synthesizer, geocoder *geocode.Resolver, uploadDir string, thumbMaxWidth, thumbQuality int) (*Pipeline, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if thumbMaxWidth <= 0 {
		thumbMaxWidth = media.DefaultThumbnailMaxWidth
	}
	if thumbQuality <= 0 {
		thumbQuality = media.DefaultThumbnailQuality
	}
	return &Pipeline{
		db:        db,
		tagger:    tagger,
		geocoder:  geocoder,
		uploadDir: uploadDir,
		thumbMaxW: thumbMaxWidth,
		thumbQ:    thumbQuality,
	}, nil
}

// Ingest runs the full upload pipeline for one file and returns the
// committed record, including any tags the enrichment attached.
//
// Failures in normalization, thumbnailing, and persistence abort the
// upload; metadata extraction and enrichment degrade gracefully.
func (p *Pipeline) Ingest(ctx context.Context, ownerID int64, filename, declaredMime string, data []byte) (*database.Image, error) {
	if len(data) == 0 || filename == "" {
		return nil, ErrEmptyUpload
	}

	workingName := sanitizeFilename(filename)
	if declaredMime == "" {
		declaredMime = mediatypes.ContentTypeFor(workingName)
	}

	// Normalization: camera-native containers become baseline JPEG.
	// Conversion failure of a detected special format is fatal.
	stageStart := time.Now()
	norm, err := media.Normalize(data, workingName, declaredMime)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.IngestDuration.WithLabelValues("normalize").Observe(time.Since(stageStart).Seconds())

	// Metadata comes from the ORIGINAL bytes: normalization can destroy
	// the embedded block. This stage never fails.
	stageStart = time.Now()
	meta := media.ExtractMetadata(data, time.Now())
	metrics.IngestDuration.WithLabelValues("extract").Observe(time.Since(stageStart).Seconds())

	stageStart = time.Now()
	thumb, err := media.GenerateThumbnail(norm.Data, p.thumbMaxW, p.thumbQ)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrThumbnail, err)
	}
	metrics.IngestDuration.WithLabelValues("thumbnail").Observe(time.Since(stageStart).Seconds())

	width, height := meta.Width, meta.Height
	if width == 0 || height == 0 {
		// Fallback: probe the normalized raster.
		if w, h, err := media.ProbeDimensions(norm.Data); err == nil {
			width, height = w, h
		} else {
			logging.Debug("dimension probe failed for %s: %v", workingName, err)
		}
	}

	storedName := uuid.NewString() + "-" + norm.Filename
	thumbName := media.ThumbnailName(storedName)
	if err := p.writeBlob(storedName, norm.Data); err != nil {
		metrics.IngestTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if err := p.writeBlob(thumbName, thumb); err != nil {
		metrics.IngestTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	img := &database.Image{
		UserID:          ownerID,
		URL:             "/uploads/" + storedName,
		ThumbnailURL:    "/uploads/" + thumbName,
		Title:           filename,
		Size:            int64(len(norm.Data)),
		MimeType:        norm.MimeType,
		Width:           width,
		Height:          height,
		TakenAt:         meta.TakenAt,
		Camera:          meta.Camera,
		LensModel:       meta.LensModel,
		Aperture:        meta.Aperture,
		ShutterSpeed:    meta.ShutterSpeed,
		ISO:             meta.ISO,
		Location:        meta.Location,
		LocationAddress: nil,
		ExifData:        meta.Raw,
	}

	stageStart = time.Now()
	if err := p.db.CreateImage(ctx, img); err != nil {
		metrics.IngestTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.IngestDuration.WithLabelValues("persist").Observe(time.Since(stageStart).Seconds())
	metrics.IngestTotal.WithLabelValues("committed").Inc()

	// Post-commit enrichment. Both steps are blocking and best-effort:
	// their outcome never alters the already-committed record's fate.
	p.enrich(ctx, img, norm.Data, norm.MimeType)

	committed, err := p.db.GetImage(ctx, img.ID)
	if err != nil {
		// The record exists; fall back to what we already hold.
		logging.Warn("failed to reload committed image %d: %v", img.ID, err)
		return img, nil
	}
	return committed, nil
}

// enrich runs vision tagging and reverse geocoding for a committed
// image. Errors are logged and swallowed.
func (p *Pipeline) enrich(ctx context.Context, img *database.Image, data []byte, mimeType string) {
	if p.tagger != nil && p.tagger.Enabled() {
		if err := p.tagger.SynthesizeTags(ctx, img.ID, img.UserID, data, mimeType); err != nil {
			logging.Warn("tag synthesis failed for image %d: %v", img.ID, err)
		}
	}

	if p.geocoder != nil && p.geocoder.Enabled() && img.Location != nil {
		if addr := p.geocoder.ResolveAddress(ctx, *img.Location); addr != nil {
			if err := p.db.UpdateImageAddress(ctx, img.ID, *addr); err != nil {
				logging.Warn("failed to store resolved address for image %d: %v", img.ID, err)
			}
		}
	}
}

func (p *Pipeline) writeBlob(name string, data []byte) error {
	path := filepath.Join(p.uploadDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// sanitizeFilename replaces whitespace so stored names stay URL- and
// shell-friendly.
func sanitizeFilename(name string) string {
	return strings.Join(strings.Fields(name), "_")
}
