package usecase

import (
	"context"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/errors"
	"talkie/pkg/logger"
)

// ChatLifecycleUseCase owns the chat state machine: group creation fan-out,
// membership diffing on updates, the leave-group entry point, and the
// delete-on-empty cascade driven by userChat deletions.
type ChatLifecycleUseCase struct {
	chatRepo     repository.ChatRepository
	userChatRepo repository.UserChatRepository
	messageRepo  repository.MessageRepository
	userRepo     repository.UserRepository
	notifier     *NotificationUseCase
}

func NewChatLifecycleUseCase(
	chatRepo repository.ChatRepository,
	userChatRepo repository.UserChatRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notifier *NotificationUseCase,
) *ChatLifecycleUseCase {
	return &ChatLifecycleUseCase{
		chatRepo:     chatRepo,
		userChatRepo: userChatRepo,
		messageRepo:  messageRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

// OnChatCreated handles the first observation of a chat document. Only group
// chats fan out; a private chat's index entries are created by its writer.
func (uc *ChatLifecycleUseCase) OnChatCreated(ctx context.Context, chat *entity.Chat) {
	if !chat.IsGroup {
		logger.Debug("Not a group chat, skipping: %s", chat.ID)
		return
	}

	if err := uc.messageRepo.CreateSystemMessage(ctx, chat.ID, entity.GroupCreated{GroupName: chat.GroupName}); err != nil {
		logger.Error("Failed to record group creation for chat %s: %v", chat.ID, err)
	}

	var added []string
	for _, member := range chat.Members {
		if member == chat.CreatedBy {
			continue
		}
		uc.addMember(ctx, chat.ID, member)
		added = append(added, member)
	}

	if len(added) > 0 {
		uc.notifier.Send(ctx, chat, added, chat.CreatedBy, Payload{
			Title: chat.GroupName,
			Body:  "You have been added to the group chat",
			Data: map[string]string{
				"chatId": chat.ID,
				"icon":   chat.GroupImageURL,
			},
		})
	}
}

// OnChatUpdated diffs the before/after snapshots of a group chat and fans the
// changes out. Updates tagged by the leave-group entry point are skipped
// entirely; the leave handler already accounted for the removal.
func (uc *ChatLifecycleUseCase) OnChatUpdated(ctx context.Context, before, after *entity.Chat) {
	if !before.IsGroup {
		logger.Debug("Not a group chat, skipping: %s", before.ID)
		return
	}

	if after.Metadata != nil && after.Metadata.UpdatedFrom == entity.UpdatedFromLeaveGroup {
		logger.Debug("Chat %s updated from leaveGroup, skipping", after.ID)
		return
	}

	if before.GroupName != after.GroupName {
		logger.Info("Group %s renamed to %q", after.ID, after.GroupName)
		if err := uc.messageRepo.CreateSystemMessage(ctx, after.ID, entity.GroupRenamed{NewGroupName: after.GroupName}); err != nil {
			logger.Error("Failed to record group rename for chat %s: %v", after.ID, err)
		}
	}

	if before.GroupImageURL != after.GroupImageURL {
		logger.Info("Group %s image updated", after.ID)
		if err := uc.messageRepo.CreateSystemMessage(ctx, after.ID, entity.GroupImageUpdated{NewGroupImageURL: after.GroupImageURL}); err != nil {
			logger.Error("Failed to record group image update for chat %s: %v", after.ID, err)
		}
	}

	added, removed := diffMembers(before.Members, after.Members)

	for _, member := range added {
		logger.Info("Adding member %s to chat %s", member, after.ID)
		uc.addMember(ctx, after.ID, member)
	}

	for _, member := range removed {
		logger.Info("Removing member %s from chat %s", member, after.ID)
		if err := uc.messageRepo.CreateSystemMessage(ctx, after.ID, entity.MemberRemoved{RemovedMemberID: member}); err != nil {
			logger.Error("Failed to record member removal for chat %s: %v", after.ID, err)
		}
		if err := uc.userChatRepo.Delete(ctx, member, after.ID); err != nil {
			logger.Error("Failed to delete userChat for %s on chat %s: %v", member, after.ID, err)
		}
	}
}

func (uc *ChatLifecycleUseCase) addMember(ctx context.Context, chatID, member string) {
	if err := uc.messageRepo.CreateSystemMessage(ctx, chatID, entity.MemberAdded{NewMemberID: member}); err != nil {
		logger.Error("Failed to record member addition for chat %s: %v", chatID, err)
	}
	if err := uc.userChatRepo.Create(ctx, &entity.UserChat{
		UserID:      member,
		ChatID:      chatID,
		UnreadCount: 1,
		IsStarred:   false,
	}); err != nil {
		logger.Error("Failed to create userChat for %s on chat %s: %v", member, chatID, err)
	}
}

// LeaveGroup removes the authenticated caller from a group chat. The chat
// update is tagged so the resulting update trigger does not re-process the
// removal.
func (uc *ChatLifecycleUseCase) LeaveGroup(ctx context.Context, uid, chatID string) error {
	if chatID == "" {
		return errors.BadRequest("chatId is required", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return errors.NotFound("Chat", err)
	}

	if uid == "" {
		return errors.Unauthorized("User must be authenticated", nil)
	}

	user, err := uc.userRepo.GetByUID(ctx, uid)
	if err != nil {
		return errors.NotFound("User", err)
	}

	if !chat.HasMember(user.Username) {
		return errors.NotFound("Member", nil)
	}

	if err := uc.userChatRepo.Delete(ctx, user.Username, chatID); err != nil {
		return err
	}

	if err := uc.chatRepo.RemoveMember(ctx, chatID, user.Username); err != nil {
		return err
	}

	if err := uc.messageRepo.CreateSystemMessage(ctx, chatID, entity.MemberLeft{LeftMemberID: user.Username}); err != nil {
		logger.Error("Failed to record member departure for chat %s: %v", chatID, err)
	}

	return nil
}

// OnUserChatDeleted implements delete-on-empty. For groups, only the
// creator's index entry removal cascades; other members' departures are
// handled by the update path. For private chats, the chat document goes away
// once both sides have dropped their entries.
func (uc *ChatLifecycleUseCase) OnUserChatDeleted(ctx context.Context, userID, chatID string) {
	if userID == "" || chatID == "" {
		logger.Warn("userChat deletion event missing ids: user=%q chat=%q", userID, chatID)
		return
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		logger.Debug("Chat %s no longer exists, skipping teardown", chatID)
		return
	}

	if chat.IsGroup {
		uc.teardownGroupChat(ctx, userID, chat)
		return
	}

	uc.teardownPrivateChat(ctx, userID, chat)
}

func (uc *ChatLifecycleUseCase) teardownGroupChat(ctx context.Context, userID string, chat *entity.Chat) {
	if chat.CreatedBy != userID {
		logger.Debug("Deletion not from group admin, skipping: %s", chat.ID)
		return
	}

	logger.Info("Deleting group chat %s", chat.ID)

	for _, member := range chat.Members {
		if err := uc.userChatRepo.Delete(ctx, member, chat.ID); err != nil {
			logger.Error("Failed to delete userChat for %s on chat %s: %v", member, chat.ID, err)
		}
	}

	if err := uc.chatRepo.Delete(ctx, chat.ID); err != nil {
		logger.Error("Failed to delete chat %s: %v", chat.ID, err)
	}
}

func (uc *ChatLifecycleUseCase) teardownPrivateChat(ctx context.Context, userID string, chat *entity.Chat) {
	otherUser, ok := chat.OtherMember(userID)
	if !ok {
		logger.Warn("No other user found in chat %s", chat.ID)
		return
	}

	if _, err := uc.userChatRepo.Get(ctx, otherUser, chat.ID); err != nil {
		if errors.Is(err, "NOT_FOUND") {
			// Second departure: nobody references the chat anymore.
			logger.Info("No other userChat found, deleting chat %s", chat.ID)
			if err := uc.chatRepo.Delete(ctx, chat.ID); err != nil {
				logger.Error("Failed to delete chat %s: %v", chat.ID, err)
			}
			return
		}
		logger.Error("Failed to check userChat for %s on chat %s: %v", otherUser, chat.ID, err)
	}
}

// diffMembers computes identity-based set differences between two member
// lists. A replace shows up as one addition and one removal.
func diffMembers(old, new []string) (added, removed []string) {
	oldSet := make(map[string]bool, len(old))
	for _, m := range old {
		oldSet[m] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, m := range new {
		newSet[m] = true
	}

	for _, m := range new {
		if !oldSet[m] {
			added = append(added, m)
		}
	}
	for _, m := range old {
		if !newSet[m] {
			removed = append(removed, m)
		}
	}
	return added, removed
}
