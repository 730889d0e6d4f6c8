package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"photo-vault/internal/database"
	"photo-vault/internal/logging"
)

// maxTagNameLength bounds manually created tag names, matching the
// limit applied to vision-synthesized tags.
const maxTagNameLength = 30

// TagRequest represents a tag create or rename request
type TagRequest struct {
	Name string `json:"name"`
}

// AttachTagsRequest represents a request to attach tags to an image by name
type AttachTagsRequest struct {
	Tags []string `json:"tags"`
}

// ListTags returns the caller's tags with per-tag image counts.
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tags, err := h.db.ListTags(ctx, user.ID)
	if err != nil {
		logging.Error("failed to list tags: %v", err)
		writeJSONError(w, "Failed to list tags", http.StatusInternalServerError)
		return
	}

	if tags == nil {
		tags = []database.Tag{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, tags)
}

// CreateTag creates a tag for the caller. Duplicate names conflict.
func (h *Handlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	name, ok := decodeTagName(w, r)
	if !ok {
		return
	}

	tag, err := h.db.CreateTag(ctx, user.ID, name)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			writeJSONError(w, "Tag already exists", http.StatusConflict)
			return
		}
		logging.Error("failed to create tag %q: %v", name, err)
		writeJSONError(w, "Failed to create tag", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, tag)
}

// RenameTag renames one of the caller's tags.
func (h *Handlers) RenameTag(w http.ResponseWriter, r *http.Request) {
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

	name, ok := decodeTagName(w, r)
	if !ok {
		return
	}

	tag, err := h.db.GetTag(ctx, id)
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, "Tag not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get tag %d: %v", id, err)
		writeJSONError(w, "Failed to get tag", http.StatusInternalServerError)
		return
	}
	if tag.UserID != user.ID {
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.db.RenameTag(ctx, id, name); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			writeJSONError(w, "A tag with that name already exists", http.StatusConflict)
			return
		}
		logging.Error("failed to rename tag %d: %v", id, err)
		writeJSONError(w, "Failed to rename tag", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// DeleteTag removes one of the caller's tags and all its image links.
func (h *Handlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
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

	tag, err := h.db.GetTag(ctx, id)
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, "Tag not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get tag %d: %v", id, err)
		writeJSONError(w, "Failed to get tag", http.StatusInternalServerError)
		return
	}
	if tag.UserID != user.ID {
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.db.DeleteTag(ctx, id); err != nil {
		logging.Error("failed to delete tag %d: %v", id, err)
		writeJSONError(w, "Failed to delete tag", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// AttachTags attaches tags to an image by name, creating any that do
// not exist yet. Attaching an already-linked tag is a no-op.
func (h *Handlers) AttachTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	imageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req AttachTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Tags) == 0 {
		writeJSONError(w, "Tags array is required", http.StatusBadRequest)
		return
	}

	img, err := h.db.GetImage(ctx, imageID)
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, "Image not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get image %d: %v", imageID, err)
		writeJSONError(w, "Failed to get image", http.StatusInternalServerError)
		return
	}
	if img.UserID != user.ID {
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	var tagIDs []int64
	for _, name := range req.Tags {
		name = strings.TrimSpace(name)
		if name == "" || utf8.RuneCountInString(name) > maxTagNameLength {
			continue
		}
		tag, err := h.db.UpsertTag(ctx, user.ID, name)
		if err != nil {
			logging.Error("failed to upsert tag %q: %v", name, err)
			continue
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	if err := h.db.AttachTags(ctx, imageID, tagIDs); err != nil {
		logging.Error("failed to attach tags to image %d: %v", imageID, err)
		writeJSONError(w, "Failed to attach tags", http.StatusInternalServerError)
		return
	}

	updated, err := h.db.GetImage(ctx, imageID)
	if err != nil {
		logging.Error("failed to reload image %d: %v", imageID, err)
		writeJSONStatus(w, "ok")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, updated)
}

// DetachTag removes a tag from an image. A tag left with no attached
// images afterwards is deleted.
func (h *Handlers) DetachTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := currentUser(r)
	if user == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	imageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tagID, ok := pathID(w, r, "tagId")
	if !ok {
		return
	}

	img, err := h.db.GetImage(ctx, imageID)
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, "Image not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get image %d: %v", imageID, err)
		writeJSONError(w, "Failed to get image", http.StatusInternalServerError)
		return
	}
	if img.UserID != user.ID {
		writeJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.db.DetachTag(ctx, imageID, tagID); err != nil {
		logging.Error("failed to detach tag %d from image %d: %v", tagID, imageID, err)
		writeJSONError(w, "Failed to detach tag", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

func decodeTagName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSONError(w, "Tag name is required", http.StatusBadRequest)
		return "", false
	}
	if utf8.RuneCountInString(name) > maxTagNameLength {
		writeJSONError(w, "Tag name is too long", http.StatusBadRequest)
		return "", false
	}
	return name, true
}
