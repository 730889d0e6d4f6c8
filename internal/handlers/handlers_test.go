package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"photo-vault/internal/database"
	"photo-vault/internal/ingest"
)

// setupHandlers creates a Handlers backed by a temp database and
// upload directory, plus a registered user for authenticated requests.
func setupHandlers(t *testing.T) (*Handlers, *database.Database, *database.User) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.New(context.Background(), filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	uploadDir := filepath.Join(dir, "uploads")
	pipeline, err := ingest.New(db, nil, nil, uploadDir, 400, 85)
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}

	user, err := db.CreateUser(context.Background(), "tester", "password123")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return New(db, pipeline, uploadDir), db, user
}

// authedRequest attaches user to the request context the way
// AuthMiddleware does for a valid session.
func authedRequest(r *http.Request, user *database.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// testJPEG encodes a solid-color JPEG of the given dimensions.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

func TestHealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	h, _, _ := setupHandlers(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
}

func TestLivenessCheckHEADHasNoBody(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	h, _, _ := setupHandlers(t)

	req := httptest.NewRequest("HEAD", "/livez", nil)
	w := httptest.NewRecorder()
	h.LivenessCheck(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body for HEAD, got %q", w.Body.String())
	}
}

func TestReadinessCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	h, _, _ := setupHandlers(t)

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()
	h.ReadinessCheck(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	h, _, _ := setupHandlers(t)

	req := httptest.NewRequest("GET", "/version", nil)
	w := httptest.NewRecorder()
	h.Version(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("goVersion")) {
		t.Errorf("expected build info in response, got %q", w.Body.String())
	}
}
