package usecase

import (
	"context"
	"time"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/logger"
)

const notificationBodyLimit = 100

type NotificationUseCase struct {
	tokenRepo repository.TokenRepository
	userRepo  repository.UserRepository
	sender    PushSender
}

func NewNotificationUseCase(
	tokenRepo repository.TokenRepository,
	userRepo repository.UserRepository,
	sender PushSender,
) *NotificationUseCase {
	return &NotificationUseCase{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		sender:    sender,
	}
}

// Send dispatches a prepared payload to every recipient's live tokens. It is
// fire-and-forget: failures are logged, never surfaced to the caller.
func (uc *NotificationUseCase) Send(ctx context.Context, chat *entity.Chat, recipients []string, senderID string, payload Payload) {
	uc.dispatch(ctx, recipients, senderID, func(*entity.User) Payload {
		return payload
	})
}

// NotifyNewMessage builds the message payload per the content policy (group
// name or sender display name as title, truncated text as body) and
// dispatches it.
func (uc *NotificationUseCase) NotifyNewMessage(ctx context.Context, chat *entity.Chat, recipients []string, senderID, text string) {
	uc.dispatch(ctx, recipients, senderID, func(sender *entity.User) Payload {
		return Payload{
			Title: messageTitle(chat, sender),
			Body:  messageBody(chat, sender, text),
			Data: map[string]string{
				"chatId": chat.ID,
				"icon":   messageIcon(chat, sender),
			},
		}
	})
}

func (uc *NotificationUseCase) dispatch(ctx context.Context, recipients []string, senderID string, buildPayload func(sender *entity.User) Payload) {
	now := time.Now()

	var allTokens []*entity.PushToken
	var staleTokens []*entity.PushToken

	for _, recipientID := range recipients {
		tokens, err := uc.tokenRepo.ListByUser(ctx, recipientID)
		if err != nil {
			logger.Warn("Failed to list tokens for user %s: %v", recipientID, err)
			continue
		}
		if len(tokens) == 0 {
			logger.Info("No tokens found for user: %s", recipientID)
			continue
		}

		for _, token := range tokens {
			if token.Expired(now) {
				// Expired tokens still go into the send batch, they are only
				// queued for removal.
				logger.Info("Token is expired: %s", token.Token)
				staleTokens = append(staleTokens, token)
			}
			allTokens = append(allTokens, token)
		}
	}

	if len(allTokens) > 0 {
		sender, err := uc.userRepo.GetByUsername(ctx, senderID)
		if err != nil {
			logger.Warn("No profile found for sender %s: %v", senderID, err)
			return
		}

		tokens := make([]string, len(allTokens))
		for i, t := range allTokens {
			tokens[i] = t.Token
		}

		results, err := uc.sender.SendMulticast(ctx, tokens, buildPayload(sender))
		if err != nil {
			// No retry: a transient multicast failure must not block token
			// pruning or the rest of the handler.
			logger.Error("Multicast send failed: %v", err)
		} else {
			for i, result := range results {
				if result.Success {
					continue
				}
				if result.ErrorCode == PushErrUnregistered || result.ErrorCode == PushErrInvalidArgument {
					staleTokens = append(staleTokens, allTokens[i])
				}
			}
		}
	}

	for _, token := range staleTokens {
		if err := uc.tokenRepo.Delete(ctx, token.UserID, token.Token); err != nil {
			logger.Warn("Failed to remove stale token %s: %v", token.Token, err)
		}
	}
}

func messageTitle(chat *entity.Chat, sender *entity.User) string {
	if chat.IsGroup {
		return chat.GroupName
	}
	return sender.DisplayName()
}

func messageBody(chat *entity.Chat, sender *entity.User, text string) string {
	if len(text) > notificationBodyLimit {
		text = text[:notificationBodyLimit-3] + "..."
	}

	if chat.IsGroup {
		return sender.DisplayName() + ": " + text
	}
	return text
}

func messageIcon(chat *entity.Chat, sender *entity.User) string {
	if chat.IsGroup {
		return chat.GroupImageURL
	}
	return sender.PhotoURL
}
