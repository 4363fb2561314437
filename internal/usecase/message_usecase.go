package usecase

import (
	"context"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/errors"
)

// MessageUseCase backs the thin message entry points: sending, listing, the
// pinned-message toggle, and read-state accounting. The heavy lifting after a
// send happens in the fan-out engine reacting to the created document.
type MessageUseCase struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
}

func NewMessageUseCase(chatRepo repository.ChatRepository, messageRepo repository.MessageRepository) *MessageUseCase {
	return &MessageUseCase{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
	}
}

type SendMessageInput struct {
	Text           string
	AttachmentURLs []string
}

func (uc *MessageUseCase) SendMessage(ctx context.Context, userID, chatID string, input SendMessageInput) (*entity.Message, error) {
	if input.Text == "" && len(input.AttachmentURLs) == 0 {
		return nil, errors.BadRequest("Message must have text or attachments", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !chat.HasMember(userID) {
		return nil, errors.Forbidden("You are not a member of this chat", nil)
	}

	message := &entity.Message{
		ChatID:         chatID,
		Text:           input.Text,
		FromUser:       userID,
		AttachmentURLs: input.AttachmentURLs,
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (uc *MessageUseCase) ListMessages(ctx context.Context, userID, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}

	if !chat.HasMember(userID) {
		return nil, 0, errors.Forbidden("You are not a member of this chat", nil)
	}

	return uc.messageRepo.ListByChat(ctx, chatID, limit, offset)
}

func (uc *MessageUseCase) TogglePinned(ctx context.Context, userID, chatID, messageID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if !chat.HasMember(userID) {
		return errors.Forbidden("You are not a member of this chat", nil)
	}

	return uc.messageRepo.TogglePinned(ctx, chatID, messageID)
}

func (uc *MessageUseCase) MarkRead(ctx context.Context, userID, chatID, messageID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if !chat.HasMember(userID) {
		return errors.Forbidden("You are not a member of this chat", nil)
	}

	return uc.messageRepo.MarkRead(ctx, chatID, messageID, userID, chat.IsGroup)
}
