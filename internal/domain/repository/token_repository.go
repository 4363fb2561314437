package repository

import (
	"context"

	"talkie/internal/domain/entity"
)

type TokenRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*entity.PushToken, error)

	// Delete removes a push token. Removing an already-removed token is not
	// an error.
	Delete(ctx context.Context, userID, token string) error
}
