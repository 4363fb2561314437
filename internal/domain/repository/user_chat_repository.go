package repository

import (
	"context"

	"talkie/internal/domain/entity"
)

type UserChatRepository interface {
	Get(ctx context.Context, userID, chatID string) (*entity.UserChat, error)
	Create(ctx context.Context, userChat *entity.UserChat) error
	Delete(ctx context.Context, userID, chatID string) error
	ListByUser(ctx context.Context, userID string) ([]*entity.UserChat, error)

	// Touch bumps updatedAt without touching the unread counter.
	Touch(ctx context.Context, userID, chatID string) error

	// IncrementUnread atomically increments the unread counter and bumps
	// updatedAt in one transaction.
	IncrementUnread(ctx context.Context, userID, chatID string) error
}
