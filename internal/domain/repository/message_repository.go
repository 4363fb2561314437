package repository

import (
	"context"

	"talkie/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	CreateSystemMessage(ctx context.Context, chatID string, event entity.SystemEvent) error
	GetByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	ListByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)

	SaveAttachment(ctx context.Context, chatID string, attachment *entity.Attachment) error
	SaveLink(ctx context.Context, chatID string, link *entity.Link) error

	// TogglePinned flips the message's pinned flag and creates or deletes the
	// matching pinned-message record in one transaction.
	TogglePinned(ctx context.Context, chatID, messageID string) error

	// MarkRead records the read state (readBy union for group chats, isRead
	// for private chats) and decrements the reader's unread counter, floored
	// at zero, in one transaction.
	MarkRead(ctx context.Context, chatID, messageID, userID string, isGroup bool) error
}
