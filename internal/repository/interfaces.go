package repository

import (
	"context"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/models"
	"github.com/baharkarakas/campus-lostfound/internal/search"
)

type Users interface {
	Create(ctx context.Context, username, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// Posts is the post store. Mutations take the acting user and check
// ownership in the same transaction as the write.
type Posts interface {
	Create(ctx context.Context, p models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (models.Post, error)
	Search(ctx context.Context, q search.Query) ([]models.Post, int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Post, error)

	// Update returns the row as it was before the patch.
	Update(ctx context.Context, actorID, id int64, patch models.PostPatch) (models.Post, error)
	// Delete returns the removed row.
	Delete(ctx context.Context, actorID, id int64) (models.Post, error)
	// SetStatus flips active/found when want is nil and returns the new status.
	SetStatus(ctx context.Context, actorID, id int64, want *models.PostStatus) (models.PostStatus, error)
}

type Sessions interface {
	Put(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
