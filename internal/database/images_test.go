package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func makeTestImage(userID int64, title string) *Image {
	camera := "Canon EOS R5"
	location := "37.865101, -119.538330"
	return &Image{
		UserID:       userID,
		URL:          "/uploads/abc-" + title,
		ThumbnailURL: "/uploads/thumb-abc-" + title,
		Title:        title,
		Size:         1024,
		MimeType:     "image/jpeg",
		Width:        800,
		Height:       600,
		TakenAt:      time.Now().Add(-24 * time.Hour),
		Camera:       &camera,
		Location:     &location,
		ExifData:     []byte(`{"Make":"Canon"}`),
	}
}

func TestCreateAndGetImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	img := makeTestImage(user.ID, "sunset.jpg")
	if err := db.CreateImage(ctx, img); err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}
	if img.ID == 0 {
		t.Fatal("expected non-zero image ID")
	}

	got, err := db.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if got.Title != "sunset.jpg" {
		t.Errorf("expected title 'sunset.jpg', got %q", got.Title)
	}
	if got.Camera == nil || *got.Camera != "Canon EOS R5" {
		t.Errorf("unexpected camera: %v", got.Camera)
	}
	if got.Location == nil || *got.Location != "37.865101, -119.538330" {
		t.Errorf("unexpected location: %v", got.Location)
	}
	if got.LensModel != nil {
		t.Errorf("expected nil lens model, got %v", *got.LensModel)
	}
	if string(got.ExifData) != `{"Make":"Canon"}` {
		t.Errorf("unexpected exif data: %s", got.ExifData)
	}
	if got.Tags == nil {
		t.Error("expected empty tag slice, got nil")
	}
}

func TestGetImageNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	if _, err := db.GetImage(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListImagesOwnerScopedAndSearch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	other, err := db.CreateUser(ctx, "other", "password")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	mine := makeTestImage(user.ID, "beach.jpg")
	theirs := makeTestImage(other.ID, "mountain.jpg")
	for _, img := range []*Image{mine, theirs} {
		if err := db.CreateImage(ctx, img); err != nil {
			t.Fatalf("CreateImage failed: %v", err)
		}
	}

	images, err := db.ListImages(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected 1 image for owner, got %d", len(images))
	}
	if images[0].ID != mine.ID {
		t.Errorf("expected image %d, got %d", mine.ID, images[0].ID)
	}

	// Title search
	images, err = db.ListImages(ctx, user.ID, "beach")
	if err != nil {
		t.Fatalf("ListImages with search failed: %v", err)
	}
	if len(images) != 1 {
		t.Errorf("expected 1 match for 'beach', got %d", len(images))
	}

	images, err = db.ListImages(ctx, user.ID, "mountain")
	if err != nil {
		t.Fatalf("ListImages with search failed: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("expected no matches for another owner's title, got %d", len(images))
	}

	// Tag search
	tag, err := db.UpsertTag(ctx, user.ID, "seaside")
	if err != nil {
		t.Fatalf("UpsertTag failed: %v", err)
	}
	if err := db.AttachTags(ctx, mine.ID, []int64{tag.ID}); err != nil {
		t.Fatalf("AttachTags failed: %v", err)
	}
	images, err = db.ListImages(ctx, user.ID, "seaside")
	if err != nil {
		t.Fatalf("ListImages with tag search failed: %v", err)
	}
	if len(images) != 1 {
		t.Errorf("expected 1 match via tag name, got %d", len(images))
	}
}

func TestUpdateImageDerivedPreservesMetadata(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	img := makeTestImage(user.ID, "original.jpg")
	if err := db.CreateImage(ctx, img); err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}

	err := db.UpdateImageDerived(ctx, img.ID, "/uploads/new.jpg", "/uploads/thumb-new.jpg", 2048, 640, 480)
	if err != nil {
		t.Fatalf("UpdateImageDerived failed: %v", err)
	}

	got, err := db.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if got.URL != "/uploads/new.jpg" || got.ThumbnailURL != "/uploads/thumb-new.jpg" {
		t.Errorf("derived URLs not updated: %s, %s", got.URL, got.ThumbnailURL)
	}
	if got.Size != 2048 || got.Width != 640 || got.Height != 480 {
		t.Errorf("derived size/dimensions not updated: %d %dx%d", got.Size, got.Width, got.Height)
	}
	// Metadata must survive the edit untouched.
	if got.Camera == nil || *got.Camera != "Canon EOS R5" {
		t.Errorf("camera changed by derived update: %v", got.Camera)
	}
	if got.Location == nil || *got.Location != "37.865101, -119.538330" {
		t.Errorf("location changed by derived update: %v", got.Location)
	}
	if !got.TakenAt.Equal(time.Unix(img.TakenAt.Unix(), 0)) {
		t.Errorf("takenAt changed by derived update: %v vs %v", got.TakenAt, img.TakenAt)
	}

	if err := db.UpdateImageDerived(ctx, 9999, "u", "t", 0, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown image, got %v", err)
	}
}

func TestUpdateImageAddress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	img := makeTestImage(user.ID, "geo.jpg")
	if err := db.CreateImage(ctx, img); err != nil {
		t.Fatalf("CreateImage failed: %v", err)
	}

	if err := db.UpdateImageAddress(ctx, img.ID, "Yosemite National Park"); err != nil {
		t.Fatalf("UpdateImageAddress failed: %v", err)
	}

	got, err := db.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if got.LocationAddress == nil || *got.LocationAddress != "Yosemite National Park" {
		t.Errorf("unexpected location address: %v", got.LocationAddress)
	}
}

func TestDeleteImageCleansOrphanedTags(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, user := setupTestDB(t)
	ctx := context.Background()

	img1 := makeTestImage(user.ID, "one.jpg")
	img2 := makeTestImage(user.ID, "two.jpg")
	for _, img := range []*Image{img1, img2} {
		if err := db.CreateImage(ctx, img); err != nil {
			t.Fatalf("CreateImage failed: %v", err)
		}
	}

	shared, _ := db.UpsertTag(ctx, user.ID, "shared")
	only, _ := db.UpsertTag(ctx, user.ID, "only-one")
	if err := db.AttachTags(ctx, img1.ID, []int64{shared.ID, only.ID}); err != nil {
		t.Fatalf("AttachTags failed: %v", err)
	}
	if err := db.AttachTags(ctx, img2.ID, []int64{shared.ID}); err != nil {
		t.Fatalf("AttachTags failed: %v", err)
	}

	if err := db.DeleteImage(ctx, img1.ID); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}

	if _, err := db.GetImage(ctx, img1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted image to be gone, got %v", err)
	}
	// "only-one" lost its last image and must be gone; "shared" survives.
	if _, err := db.GetTag(ctx, only.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected orphaned tag to be deleted, got %v", err)
	}
	if _, err := db.GetTag(ctx, shared.ID); err != nil {
		t.Errorf("expected shared tag to survive, got %v", err)
	}

	if err := db.DeleteImage(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown image, got %v", err)
	}
}
