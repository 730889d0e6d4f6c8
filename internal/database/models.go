package database

import (
	"encoding/json"
	"time"
)

// User represents a vault account. Every image and tag is owned by
// exactly one user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents an authenticated user session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Image is the stored record for one uploaded picture, including the
// metadata resolved at ingestion and any enrichment applied afterwards.
// Pointer fields are null when the source metadata did not carry them.
type Image struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	URL             string          `json:"url"`
	ThumbnailURL    string          `json:"thumbnailUrl"`
	Title           string          `json:"title"`
	Size            int64           `json:"size"`
	MimeType        string          `json:"mimeType"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	TakenAt         time.Time       `json:"takenAt"`
	Camera          *string         `json:"camera"`
	LensModel       *string         `json:"lensModel"`
	Aperture        *float64        `json:"aperture"`
	ShutterSpeed    *string         `json:"shutterSpeed"`
	ISO             *int            `json:"iso"`
	Location        *string         `json:"location"`
	LocationAddress *string         `json:"locationAddress"`
	ExifData        json.RawMessage `json:"exifData,omitempty"`
	Tags            []Tag           `json:"tags"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Tag is a per-owner label. (user_id, name) is unique; a tag that ends
// up with zero attached images after a detach is removed.
type Tag struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	Name       string    `json:"name"`
	ImageCount int       `json:"imageCount,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
