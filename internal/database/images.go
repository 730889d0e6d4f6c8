package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photo-vault/internal/logging"
)

// CreateImage persists a new image row with all metadata fields already
// resolved. On success the ID, CreatedAt, and UpdatedAt fields of img
// are filled in.
func (d *Database) CreateImage(ctx context.Context, img *Image) error {
	done := observeQuery("create_image")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO images (
			user_id, url, thumbnail_url, title, size, mime_type,
			width, height, taken_at, camera, lens_model, aperture,
			shutter_speed, iso, location, location_address, exif_data,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.UserID, img.URL, img.ThumbnailURL, img.Title, img.Size, img.MimeType,
		img.Width, img.Height, img.TakenAt.Unix(), img.Camera, img.LensModel, img.Aperture,
		img.ShutterSpeed, img.ISO, img.Location, img.LocationAddress, nullableJSON(img.ExifData),
		now.Unix(), now.Unix(),
	)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to create image: %w", err)
	}
	done(nil)

	img.ID, _ = result.LastInsertId()
	img.CreatedAt = now
	img.UpdatedAt = now
	return nil
}

// GetImage returns a single image with its tags, or ErrNotFound.
func (d *Database) GetImage(ctx context.Context, id int64) (*Image, error) {
	done := observeQuery("get_image")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, url, thumbnail_url, title, size, mime_type,
			width, height, taken_at, camera, lens_model, aperture,
			shutter_speed, iso, location, location_address, exif_data,
			created_at, updated_at
		FROM images WHERE id = ?`, id)

	img, err := scanImage(row)
	if err != nil {
		done(nil)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	done(nil)

	tags, err := d.getImageTags(ctx, img.ID)
	if err != nil {
		return nil, err
	}
	img.Tags = tags
	return img, nil
}

// ListImages returns the owner's images, newest first, with tags. When
// search is non-empty it matches against title and tag names.
func (d *Database) ListImages(ctx context.Context, userID int64, search string) ([]Image, error) {
	done := observeQuery("list_images")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, url, thumbnail_url, title, size, mime_type,
			width, height, taken_at, camera, lens_model, aperture,
			shutter_speed, iso, location, location_address, exif_data,
			created_at, updated_at
		FROM images WHERE user_id = ?`
	args := []interface{}{userID}

	if search != "" {
		query += ` AND (title LIKE ? OR id IN (
			SELECT it.image_id FROM image_tags it
			INNER JOIN tags t ON t.id = it.tag_id
			WHERE t.name LIKE ?
		))`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var images []Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			done(err)
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}
	done(nil)

	for i := range images {
		tags, err := d.getImageTags(ctx, images[i].ID)
		if err != nil {
			return nil, err
		}
		images[i].Tags = tags
	}
	return images, nil
}

// UpdateImageDerived replaces the derived artifacts of an image after an
// edit: url, thumbnail url, size, and pixel dimensions. All metadata
// fields are left untouched.
func (d *Database) UpdateImageDerived(ctx context.Context, id int64, url, thumbnailURL string, size int64, width, height int) error {
	done := observeQuery("update_image_derived")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `
		UPDATE images
		SET url = ?, thumbnail_url = ?, size = ?, width = ?, height = ?, updated_at = ?
		WHERE id = ?`,
		url, thumbnailURL, size, width, height, time.Now().Unix(), id,
	)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to update image: %w", err)
	}
	done(nil)

	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateImageAddress stores the resolved human-readable address for an
// image. Used by the geocoding enrichment.
func (d *Database) UpdateImageAddress(ctx context.Context, id int64, address string) error {
	done := observeQuery("update_image_address")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"UPDATE images SET location_address = ?, updated_at = ? WHERE id = ?",
		address, time.Now().Unix(), id,
	)
	done(err)
	if err != nil {
		return fmt.Errorf("failed to update image address: %w", err)
	}
	return nil
}

// DeleteImage removes an image record and its tag links, then deletes
// any of its tags left with zero attached images. The underlying blob
// and thumbnail are NOT removed from disk. ErrNotFound when id is
// unknown.
func (d *Database) DeleteImage(ctx context.Context, id int64) error {
	done := observeQuery("delete_image")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	// Remember the linked tags before the links go away.
	tagIDs, err := linkedTagIDs(ctx, tx, id)
	if err != nil {
		done(err)
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		done(nil)
		return ErrNotFound
	}

	// Image-tag links cascade; clean up tags that just lost their last image.
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM tags WHERE id = ?
			AND NOT EXISTS (SELECT 1 FROM image_tags WHERE tag_id = ?)`,
			tagID, tagID,
		); err != nil {
			done(err)
			return fmt.Errorf("failed to clean orphaned tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		done(err)
		return err
	}
	committed = true
	done(nil)
	return nil
}

func linkedTagIDs(ctx context.Context, tx *sql.Tx, imageID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, "SELECT tag_id FROM image_tags WHERE image_id = ?", imageID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(s scanner) (*Image, error) {
	var img Image
	var takenAt, createdAt, updatedAt int64
	var thumbnailURL, exifData sql.NullString

	err := s.Scan(
		&img.ID, &img.UserID, &img.URL, &thumbnailURL, &img.Title, &img.Size, &img.MimeType,
		&img.Width, &img.Height, &takenAt, &img.Camera, &img.LensModel, &img.Aperture,
		&img.ShutterSpeed, &img.ISO, &img.Location, &img.LocationAddress, &exifData,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if thumbnailURL.Valid {
		img.ThumbnailURL = thumbnailURL.String
	}
	if exifData.Valid {
		img.ExifData = []byte(exifData.String)
	}
	img.TakenAt = time.Unix(takenAt, 0)
	img.CreatedAt = time.Unix(createdAt, 0)
	img.UpdatedAt = time.Unix(updatedAt, 0)
	img.Tags = []Tag{}
	return &img, nil
}

func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
