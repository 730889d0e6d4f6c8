package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"photo-vault/internal/ingest"
	"photo-vault/internal/logging"
	"photo-vault/internal/media"
)

// maxUploadBytes caps a single multipart upload. Phone HEIC originals
// run tens of megabytes; 100MB leaves generous headroom.
const maxUploadBytes = 100 << 20

// Upload accepts a multipart image upload and runs it through the
// ingestion pipeline.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logging.Error("failed to read upload body: %v", err)
		writeJSONError(w, "Failed to read upload", http.StatusInternalServerError)
		return
	}

	img, err := h.pipeline.Ingest(ctx, user.ID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrEmptyUpload):
			writeJSONError(w, "Uploaded file is empty", http.StatusBadRequest)
		case errors.Is(err, media.ErrConversion):
			logging.Error("format conversion failed for %s: %v", header.Filename, err)
			writeJSONError(w, "Failed to convert image format; the file may be corrupt or use an unsupported codec", http.StatusInternalServerError)
		case errors.Is(err, ingest.ErrThumbnail):
			logging.Error("thumbnail generation failed for %s: %v", header.Filename, err)
			writeJSONError(w, "Failed to process image", http.StatusInternalServerError)
		default:
			logging.Error("ingestion failed for %s: %v", header.Filename, err)
			writeJSONError(w, "Failed to store image", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, img)
}

// EditImage replaces an image's stored blob and thumbnail with an
// edited version while preserving capture metadata and tags.
func (h *Handlers) EditImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	imageID, err := strconv.ParseInt(r.FormValue("imageId"), 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid imageId", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logging.Error("failed to read edit body: %v", err)
		writeJSONError(w, "Failed to read upload", http.StatusInternalServerError)
		return
	}

	img, err := h.pipeline.Reprocess(ctx, user.ID, imageID, data)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrForbidden):
			writeJSONError(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, ingest.ErrEmptyUpload):
			writeJSONError(w, "Uploaded file is empty", http.StatusBadRequest)
		case isNotFound(err):
			writeJSONError(w, "Image not found", http.StatusNotFound)
		case errors.Is(err, ingest.ErrThumbnail):
			logging.Error("thumbnail generation failed for edited image %d: %v", imageID, err)
			writeJSONError(w, "Failed to process image", http.StatusInternalServerError)
		default:
			logging.Error("edit failed for image %d: %v", imageID, err)
			writeJSONError(w, "Failed to store image", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, img)
}
