package repository

import (
	"context"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
)

// UserRepository is the document store for profile aggregates. Save writes
// the whole aggregate in one shot (last write wins); implementations must
// preserve nested-list order and embedded entry identifiers across saves.
// Lookups return (nil, nil) when no document matches; a non-nil error
// always means the storage layer itself failed.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByGuestID(ctx context.Context, guestID string) (*entity.User, error)
	Save(ctx context.Context, u *entity.User) error
	// ListPublic returns every non-guest profile except excludeID.
	ListPublic(ctx context.Context, excludeID string) ([]*entity.User, error)
}
