package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"photo-vault/internal/logging"
	"photo-vault/internal/mediatypes"
)

// ServeUpload serves a stored blob by filename. The filename is
// rejected before any filesystem access when it carries path
// separators or traversal sequences.
func (h *Handlers) ServeUpload(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	if filename == "" || containsTraversal(filename) {
		writeJSONError(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.uploadDir, filename)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to open upload %s: %v", filename, err)
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		logging.Error("failed to stat upload %s: %v", filename, err)
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	// Stored names embed a UUID, so blobs never change in place.
	w.Header().Set("Content-Type", mediatypes.ContentTypeFor(filename))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	http.ServeContent(w, r, filename, stat.ModTime(), file)
}

// containsTraversal reports whether the filename carries path
// separators or parent-directory references.
func containsTraversal(filename string) bool {
	return strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, `/\`)
}
