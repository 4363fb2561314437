package repository

import (
	"context"
	"time"

	"talkie/internal/domain/entity"
)

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByUID(ctx context.Context, uid string) (*entity.User, error)

	// SetRefreshMarker writes the refresh-time marker the client watches to
	// know when to force a token refresh.
	SetRefreshMarker(ctx context.Context, username string, refreshAt time.Time) error
	DeleteRefreshMarker(ctx context.Context, username string) error
}
