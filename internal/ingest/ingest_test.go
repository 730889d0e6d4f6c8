package ingest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photo-vault/internal/database"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 40, G: 90, B: 200, A: 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

// setupPipeline creates a pipeline without enrichment services against
// a temp database and upload dir.
func setupPipeline(t *testing.T) (*Pipeline, *database.Database, *database.User, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "vault.db")
	db, err := database.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	user, err := db.CreateUser(context.Background(), "tester", "password")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	uploadDir := t.TempDir()
	p, err := New(db, nil, nil, uploadDir, 400, 85)
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p, db, user, uploadDir
}

func TestIngestCommitsRecordAndArtifacts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	p, _, user, uploadDir := setupPipeline(t)
	ctx := context.Background()

	data := testJPEG(t, 800, 600)
	img, err := p.Ingest(ctx, user.ID, "My Photo.jpg", "image/jpeg", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if img.ID == 0 {
		t.Fatal("expected committed record with non-zero ID")
	}
	if img.Title != "My Photo.jpg" {
		t.Errorf("title must keep the original filename, got %q", img.Title)
	}
	if img.MimeType != "image/jpeg" {
		t.Errorf("expected mime image/jpeg, got %q", img.MimeType)
	}
	if img.Width != 800 || img.Height != 600 {
		t.Errorf("expected probed dimensions 800x600, got %dx%d", img.Width, img.Height)
	}
	if img.Size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), img.Size)
	}
	if img.TakenAt.IsZero() {
		t.Error("takenAt must default to ingestion time")
	}
	if !strings.HasPrefix(img.URL, "/uploads/") || !strings.Contains(img.URL, "My_Photo.jpg") {
		t.Errorf("unexpected url: %s", img.URL)
	}
	if !strings.HasPrefix(img.ThumbnailURL, "/uploads/thumb-") {
		t.Errorf("unexpected thumbnail url: %s", img.ThumbnailURL)
	}

	// Exactly one full blob and one thumbnail on disk.
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		t.Fatalf("failed to read upload dir: %v", err)
	}
	var full, thumbs int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "thumb-") {
			thumbs++
		} else {
			full++
		}
	}
	if full != 1 || thumbs != 1 {
		t.Errorf("expected 1 full + 1 thumbnail artifact, got %d + %d", full, thumbs)
	}
}

func TestIngestRejectsEmptyUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	p, _, user, _ := setupPipeline(t)

	if _, err := p.Ingest(context.Background(), user.ID, "x.jpg", "image/jpeg", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("expected ErrEmptyUpload, got %v", err)
	}
	if _, err := p.Ingest(context.Background(), user.ID, "", "image/jpeg", []byte("data")); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("expected ErrEmptyUpload for missing filename, got %v", err)
	}
}

func TestIngestRejectsUndecodableImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	p, db, user, _ := setupPipeline(t)
	ctx := context.Background()

	_, err := p.Ingest(ctx, user.ID, "broken.jpg", "image/jpeg", []byte("not an image"))
	if !errors.Is(err, ErrThumbnail) {
		t.Errorf("expected ErrThumbnail, got %v", err)
	}

	// No record committed without a usable thumbnail.
	images, err := db.ListImages(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("expected no committed records, got %d", len(images))
	}
}

func TestReprocessUpdatesDerivedOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	p, db, user, _ := setupPipeline(t)
	ctx := context.Background()

	original, err := p.Ingest(ctx, user.ID, "orig.jpg", "image/jpeg", testJPEG(t, 800, 600))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// Pin an enrichment field to prove the edit leaves it alone.
	if err := db.UpdateImageAddress(ctx, original.ID, "Somewhere"); err != nil {
		t.Fatalf("UpdateImageAddress failed: %v", err)
	}

	edited := testJPEG(t, 400, 400)
	updated, err := p.Reprocess(ctx, user.ID, original.ID, edited)
	if err != nil {
		t.Fatalf("Reprocess failed: %v", err)
	}

	if updated.URL == original.URL {
		t.Error("expected url to change after edit")
	}
	if updated.ThumbnailURL == original.ThumbnailURL {
		t.Error("expected thumbnail url to change after edit")
	}
	if updated.Width != 400 || updated.Height != 400 {
		t.Errorf("expected re-probed 400x400, got %dx%d", updated.Width, updated.Height)
	}
	if updated.Size != int64(len(edited)) {
		t.Errorf("expected size %d, got %d", len(edited), updated.Size)
	}
	// Metadata preserved across the edit.
	if !updated.TakenAt.Equal(original.TakenAt) {
		t.Errorf("takenAt changed: %v vs %v", updated.TakenAt, original.TakenAt)
	}
	if updated.LocationAddress == nil || *updated.LocationAddress != "Somewhere" {
		t.Errorf("locationAddress changed: %v", updated.LocationAddress)
	}
}

func TestReprocessForbiddenForNonOwner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	p, db, user, _ := setupPipeline(t)
	ctx := context.Background()

	img, err := p.Ingest(ctx, user.ID, "mine.jpg", "image/jpeg", testJPEG(t, 100, 100))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	other, err := db.CreateUser(ctx, "other", "password")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := p.Reprocess(ctx, other.ID, img.ID, testJPEG(t, 50, 50)); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestReprocessUnknownImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	p, _, user, _ := setupPipeline(t)

	_, err := p.Reprocess(context.Background(), user.ID, 9999, testJPEG(t, 50, 50))
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Photo.jpg", "My_Photo.jpg"},
		{"already_clean.png", "already_clean.png"},
		{"  spaced   out .gif", "spaced_out_.gif"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
