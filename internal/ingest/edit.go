package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"photo-vault/internal/database"
	"photo-vault/internal/logging"
	"photo-vault/internal/media"
)

// Reprocess handles an in-place edit of an existing image: the edited
// bytes replace the stored raster and its derived artifacts. Metadata
// fields are left untouched, since the edit path carries no fresh
// capture metadata. The requester must own the image.
func (p *Pipeline) Reprocess(ctx context.Context, ownerID, imageID int64, data []byte) (*database.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	existing, err := p.db.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != ownerID {
		return nil, ErrForbidden
	}

	thumb, err := media.GenerateThumbnail(data, p.thumbMaxW, p.thumbQ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThumbnail, err)
	}

	width, height, err := media.ProbeDimensions(data)
	if err != nil {
		logging.Debug("dimension probe failed for edited image %d: %v", imageID, err)
	}

	storedName := uuid.NewString() + "-edited.jpg"
	thumbName := media.ThumbnailName(storedName)
	if err := p.writeBlob(storedName, data); err != nil {
		return nil, err
	}
	if err := p.writeBlob(thumbName, thumb); err != nil {
		return nil, err
	}

	err = p.db.UpdateImageDerived(ctx, imageID,
		"/uploads/"+storedName, "/uploads/"+thumbName,
		int64(len(data)), width, height)
	if err != nil {
		return nil, err
	}

	return p.db.GetImage(ctx, imageID)
}
