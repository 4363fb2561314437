package usecase

import (
	"context"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/errors"
	"talkie/pkg/logger"
	"talkie/pkg/utils"
)

// linkExtractionMinLength is the shortest text worth scanning for links; a
// bare "https://x.y" already needs 12 characters.
const linkExtractionMinLength = 12

// MessageFanoutUseCase reacts to each created non-system message: per-member
// unread accounting, notification dispatch, and attachment/link extraction.
// Every step is best-effort; a failure in one never blocks the others.
type MessageFanoutUseCase struct {
	chatRepo     repository.ChatRepository
	userChatRepo repository.UserChatRepository
	messageRepo  repository.MessageRepository
	notifier     *NotificationUseCase
}

func NewMessageFanoutUseCase(
	chatRepo repository.ChatRepository,
	userChatRepo repository.UserChatRepository,
	messageRepo repository.MessageRepository,
	notifier *NotificationUseCase,
) *MessageFanoutUseCase {
	return &MessageFanoutUseCase{
		chatRepo:     chatRepo,
		userChatRepo: userChatRepo,
		messageRepo:  messageRepo,
		notifier:     notifier,
	}
}

func (uc *MessageFanoutUseCase) OnMessageCreated(ctx context.Context, message *entity.Message) {
	if message.IsSystem() {
		logger.Debug("System message, skipping: %s", message.ID)
		return
	}

	if message.FromUser == "" {
		logger.Warn("No fromUser associated with message %s", message.ID)
		return
	}

	chat, err := uc.chatRepo.GetByID(ctx, message.ChatID)
	if err != nil {
		// Orphaned message: logged, not retried.
		logger.Warn("Chat %s not found for message %s: %v", message.ChatID, message.ID, err)
		return
	}

	// The sender's own entry only gets a timestamp bump, never an unread
	// increment.
	if err := uc.userChatRepo.Touch(ctx, message.FromUser, chat.ID); err != nil {
		logger.Warn("Failed to touch userChat for sender %s on chat %s: %v", message.FromUser, chat.ID, err)
	}

	var recipients []string
	for _, member := range chat.Members {
		if member == message.FromUser {
			continue
		}
		recipients = append(recipients, member)
		uc.bumpUnread(ctx, member, chat.ID)
	}

	uc.notifier.NotifyNewMessage(ctx, chat, recipients, message.FromUser, message.Text)

	uc.saveAttachments(ctx, message)

	if len(message.Text) >= linkExtractionMinLength {
		uc.saveLinks(ctx, message)
	}
}

// bumpUnread increments the member's unread counter, creating a fresh index
// entry (already at unread 1, no extra increment) when the member has none
// yet for this chat.
func (uc *MessageFanoutUseCase) bumpUnread(ctx context.Context, userID, chatID string) {
	_, err := uc.userChatRepo.Get(ctx, userID, chatID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			if createErr := uc.userChatRepo.Create(ctx, &entity.UserChat{
				UserID:      userID,
				ChatID:      chatID,
				UnreadCount: 1,
				IsStarred:   false,
			}); createErr != nil {
				logger.Warn("Failed to create userChat for %s on chat %s: %v", userID, chatID, createErr)
			}
			return
		}
		logger.Warn("Failed to look up userChat for %s on chat %s: %v", userID, chatID, err)
		return
	}

	if err := uc.userChatRepo.IncrementUnread(ctx, userID, chatID); err != nil {
		logger.Warn("Failed to increment unread for %s on chat %s: %v", userID, chatID, err)
	}
}

func (uc *MessageFanoutUseCase) saveAttachments(ctx context.Context, message *entity.Message) {
	for _, url := range message.AttachmentURLs {
		if err := uc.messageRepo.SaveAttachment(ctx, message.ChatID, &entity.Attachment{
			MessageID: message.ID,
			URL:       url,
			IsMedia:   utils.IsMediaFile(url),
		}); err != nil {
			logger.Warn("Failed to save attachment for message %s: %v", message.ID, err)
		}
	}
}

func (uc *MessageFanoutUseCase) saveLinks(ctx context.Context, message *entity.Message) {
	for _, link := range utils.ExtractLinks(message.Text) {
		if err := uc.messageRepo.SaveLink(ctx, message.ChatID, &entity.Link{
			MessageID: message.ID,
			URL:       link,
		}); err != nil {
			logger.Warn("Failed to save link for message %s: %v", message.ID, err)
		}
	}
}
