package repository

import (
	"context"

	"talkie/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	Update(ctx context.Context, chat *entity.Chat) error
	Delete(ctx context.Context, id string) error

	// RemoveMember atomically filters userID out of the member list and tags
	// metadata.updatedFrom with the leave-group marker so the resulting
	// update event is not diffed again.
	RemoveMember(ctx context.Context, chatID, userID string) error
}
