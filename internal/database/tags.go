package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-vault/internal/logging"
)

// UpsertTag inserts a tag for the owner or returns the existing one with
// that name. The write is expressed as insert-on-conflict-do-nothing
// followed by a re-select, so concurrent uploads suggesting the same
// name converge on a single row without an application-level lock.
func (d *Database) UpsertTag(ctx context.Context, userID int64, name string) (*Tag, error) {
	done := observeQuery("upsert_tag")

	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(ctx,
		"INSERT INTO tags (user_id, name) VALUES (?, ?) ON CONFLICT(user_id, name) DO NOTHING",
		userID, name,
	); err != nil {
		done(err)
		return nil, fmt.Errorf("failed to upsert tag: %w", err)
	}

	tag, err := d.getTagByName(ctx, userID, name)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to load upserted tag: %w", err)
	}
	return tag, nil
}

// CreateTag inserts a tag and fails with ErrDuplicate when the owner
// already has one with that name. Used by the manual tag-create API.
func (d *Database) CreateTag(ctx context.Context, userID int64, name string) (*Tag, error) {
	done := observeQuery("create_tag")

	name = strings.TrimSpace(name)
	if name == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO tags (user_id, name) VALUES (?, ?)",
		userID, name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			done(nil)
			return nil, ErrDuplicate
		}
		done(err)
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	done(nil)

	id, _ := result.LastInsertId()
	return &Tag{ID: id, UserID: userID, Name: name, CreatedAt: time.Now()}, nil
}

// GetTag returns a tag by id, or ErrNotFound.
func (d *Database) GetTag(ctx context.Context, id int64) (*Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tag Tag
	var createdAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM tags WHERE id = ?", id,
	).Scan(&tag.ID, &tag.UserID, &tag.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	tag.CreatedAt = time.Unix(createdAt, 0)
	return &tag, nil
}

// RenameTag changes a tag's name. ErrDuplicate when the owner already
// has a tag with the new name.
func (d *Database) RenameTag(ctx context.Context, id int64, newName string) error {
	done := observeQuery("rename_tag")

	newName = strings.TrimSpace(newName)
	if newName == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"UPDATE tags SET name = ? WHERE id = ?", newName, id)
	if err != nil {
		if isUniqueViolation(err) {
			done(nil)
			return ErrDuplicate
		}
		done(err)
		return fmt.Errorf("failed to rename tag: %w", err)
	}
	done(nil)

	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTag removes a tag and all of its image links.
func (d *Database) DeleteTag(ctx context.Context, id int64) error {
	done := observeQuery("delete_tag")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	done(nil)

	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTags returns the owner's tags with per-tag image counts, sorted by
// name.
func (d *Database) ListTags(ctx context.Context, userID int64) ([]Tag, error) {
	done := observeQuery("list_tags")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.name, t.created_at, COUNT(it.image_id)
		FROM tags t
		LEFT JOIN image_tags it ON it.tag_id = t.id
		WHERE t.user_id = ?
		GROUP BY t.id
		ORDER BY t.name COLLATE NOCASE`, userID)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var createdAt int64
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &createdAt, &tag.ImageCount); err != nil {
			done(err)
			return nil, err
		}
		tag.CreatedAt = time.Unix(createdAt, 0)
		tags = append(tags, tag)
	}
	done(rows.Err())
	return tags, rows.Err()
}

// AttachTags links the given tag ids to an image as a set union:
// already-linked tags are left alone and nothing is ever removed.
func (d *Database) AttachTags(ctx context.Context, imageID int64, tagIDs []int64) error {
	done := observeQuery("attach_tags")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for _, tagID := range tagIDs {
		if _, err := d.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO image_tags (image_id, tag_id) VALUES (?, ?)",
			imageID, tagID,
		); err != nil {
			done(err)
			return fmt.Errorf("failed to attach tag %d: %w", tagID, err)
		}
	}
	done(nil)
	return nil
}

// DetachTag unlinks a tag from an image. When the tag has no remaining
// attached images it is deleted outright.
func (d *Database) DetachTag(ctx context.Context, imageID, tagID int64) error {
	done := observeQuery("detach_tag")

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

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM image_tags WHERE image_id = ? AND tag_id = ?",
		imageID, tagID,
	); err != nil {
		done(err)
		return fmt.Errorf("failed to detach tag: %w", err)
	}

	// No orphan retention: a tag with zero attached images goes away.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM tags WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM image_tags WHERE tag_id = ?)`,
		tagID, tagID,
	); err != nil {
		done(err)
		return fmt.Errorf("failed to clean orphaned tag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		done(err)
		return err
	}
	committed = true
	done(nil)
	return nil
}

// TagUsageCount returns the number of images a tag is attached to.
func (d *Database) TagUsageCount(ctx context.Context, tagID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM image_tags WHERE tag_id = ?", tagID).Scan(&count)
	return count, err
}

// getImageTags returns the tags attached to an image, sorted by name.
func (d *Database) getImageTags(ctx context.Context, imageID int64) ([]Tag, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.name, t.created_at
		FROM tags t
		INNER JOIN image_tags it ON t.id = it.tag_id
		WHERE it.image_id = ?
		ORDER BY t.name COLLATE NOCASE`, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image tags: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	tags := []Tag{}
	for rows.Next() {
		var tag Tag
		var createdAt int64
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &createdAt); err == nil {
			tag.CreatedAt = time.Unix(createdAt, 0)
			tags = append(tags, tag)
		}
	}
	return tags, rows.Err()
}

func (d *Database) getTagByName(ctx context.Context, userID int64, name string) (*Tag, error) {
	var tag Tag
	var createdAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM tags WHERE user_id = ? AND name = ?",
		userID, name,
	).Scan(&tag.ID, &tag.UserID, &tag.Name, &createdAt)
	if err != nil {
		return nil, err
	}
	tag.CreatedAt = time.Unix(createdAt, 0)
	return &tag, nil
}
