package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"photo-vault/internal/database"
	"photo-vault/internal/logging"
)

// ListImages returns the caller's images, optionally filtered by a
// search term matched against titles and tag names.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	search := r.URL.Query().Get("search")
	images, err := h.db.ListImages(ctx, user.ID, search)
	if err != nil {
		logging.Error("failed to list images: %v", err)
		writeJSONError(w, "Failed to list images", http.StatusInternalServerError)
		return
	}

	if images == nil {
		images = []database.Image{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, images)
}

// GetImage returns a single image with its tags.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	img, err := h.db.GetImage(ctx, id)
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, "Image not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get image %d: %v", id, err)
		writeJSONError(w, "Failed to get image", http.StatusInternalServerError)
		return
	}

	if img.UserID != user.ID {
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, img)
}

// DeleteImage removes an image record along with its tag links. Tags
// left without any attached image are removed too. The stored blobs
// stay on disk.
func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	img, err := h.db.GetImage(ctx, id)
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, "Image not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get image %d: %v", id, err)
		writeJSONError(w, "Failed to get image", http.StatusInternalServerError)
		return
	}
	if img.UserID != user.ID {
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.db.DeleteImage(ctx, id); err != nil {
		logging.Error("failed to delete image %d: %v", id, err)
		writeJSONError(w, "Failed to delete image", http.StatusInternalServerError)
		return
	}
	logging.Debug("deleted image %d; stored blobs for %s are retained on disk", id, img.URL)

	writeJSONStatus(w, "ok")
}

// pathID parses the named mux path variable as an int64, writing a 400
// response when it is not a valid ID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
