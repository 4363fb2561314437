package usecase

import (
	"context"
	"sync"
	"time"

	"talkie/internal/domain/entity"
	"talkie/pkg/errors"
)

func key(userID, chatID string) string {
	return userID + "/" + chatID
}

type fakeChatRepo struct {
	mu    sync.Mutex
	chats map[string]*entity.Chat
}

func newFakeChatRepo(chats ...*entity.Chat) *fakeChatRepo {
	repo := &fakeChatRepo{chats: make(map[string]*entity.Chat)}
	for _, chat := range chats {
		repo.chats[chat.ID] = chat
	}
	return repo
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return chat, nil
}

func (r *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, id)
	return nil
}

func (r *fakeChatRepo) RemoveMember(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	var members []string
	for _, m := range chat.Members {
		if m != userID {
			members = append(members, m)
		}
	}
	chat.Members = members
	chat.Metadata = &entity.ChatMetadata{UpdatedFrom: entity.UpdatedFromLeaveGroup}
	return nil
}

type fakeUserChatRepo struct {
	mu        sync.Mutex
	userChats map[string]*entity.UserChat
	touched   []string
}

func newFakeUserChatRepo(userChats ...*entity.UserChat) *fakeUserChatRepo {
	repo := &fakeUserChatRepo{userChats: make(map[string]*entity.UserChat)}
	for _, uc := range userChats {
		repo.userChats[key(uc.UserID, uc.ChatID)] = uc
	}
	return repo
}

func (r *fakeUserChatRepo) Get(ctx context.Context, userID, chatID string) (*entity.UserChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uc, ok := r.userChats[key(userID, chatID)]
	if !ok {
		return nil, errors.NotFound("UserChat", nil)
	}
	return uc, nil
}

func (r *fakeUserChatRepo) Create(ctx context.Context, userChat *entity.UserChat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userChats[key(userChat.UserID, userChat.ChatID)] = userChat
	return nil
}

func (r *fakeUserChatRepo) Delete(ctx context.Context, userID, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.userChats, key(userID, chatID))
	return nil
}

func (r *fakeUserChatRepo) ListByUser(ctx context.Context, userID string) ([]*entity.UserChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.UserChat
	for _, uc := range r.userChats {
		if uc.UserID == userID {
			result = append(result, uc)
		}
	}
	return result, nil
}

func (r *fakeUserChatRepo) Touch(ctx context.Context, userID, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched = append(r.touched, key(userID, chatID))
	if uc, ok := r.userChats[key(userID, chatID)]; ok {
		uc.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeUserChatRepo) IncrementUnread(ctx context.Context, userID, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	uc, ok := r.userChats[key(userID, chatID)]
	if !ok {
		return errors.NotFound("UserChat", nil)
	}
	uc.UnreadCount++
	uc.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserChatRepo) get(userID, chatID string) *entity.UserChat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userChats[key(userID, chatID)]
}

type systemMessageRecord struct {
	ChatID string
	Event  entity.SystemEvent
}

type fakeMessageRepo struct {
	mu             sync.Mutex
	messages       map[string]*entity.Message
	systemMessages []systemMessageRecord
	attachments    []*entity.Attachment
	links          []*entity.Link
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*entity.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == "" {
		message.ID = "msg-generated"
	}
	r.messages[message.ID] = message
	return nil
}

func (r *fakeMessageRepo) CreateSystemMessage(ctx context.Context, chatID string, event entity.SystemEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.systemMessages = append(r.systemMessages, systemMessageRecord{ChatID: chatID, Event: event})
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[messageID]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return message, nil
}

func (r *fakeMessageRepo) ListByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			result = append(result, m)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeMessageRepo) SaveAttachment(ctx context.Context, chatID string, attachment *entity.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attachments = append(r.attachments, attachment)
	return nil
}

func (r *fakeMessageRepo) SaveLink(ctx context.Context, chatID string, link *entity.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, link)
	return nil
}

func (r *fakeMessageRepo) TogglePinned(ctx context.Context, chatID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[messageID]
	if !ok {
		return errors.NotFound("Message", nil)
	}
	message.IsPinned = !message.IsPinned
	return nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, chatID, messageID, userID string, isGroup bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[messageID]
	if !ok {
		return errors.NotFound("Message", nil)
	}
	message.IsRead = true
	if isGroup && !contains(message.ReadBy, userID) {
		message.ReadBy = append(message.ReadBy, userID)
	}
	return nil
}

func (r *fakeMessageRepo) systemEvents(chatID string) []entity.SystemEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []entity.SystemEvent
	for _, rec := range r.systemMessages {
		if rec.ChatID == chatID {
			events = append(events, rec.Event)
		}
	}
	return events
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string][]*entity.PushToken
	deleted []string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string][]*entity.PushToken)}
}

func (r *fakeTokenRepo) add(userID, token string, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[userID] = append(r.tokens[userID], &entity.PushToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: createdAt,
	})
}

func (r *fakeTokenRepo) ListByUser(ctx context.Context, userID string) ([]*entity.PushToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[userID], nil
}

func (r *fakeTokenRepo) Delete(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*entity.PushToken
	for _, t := range r.tokens[userID] {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	r.tokens[userID] = kept
	r.deleted = append(r.deleted, key(userID, token))
	return nil
}

func (r *fakeTokenRepo) list(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tokens []string
	for _, t := range r.tokens[userID] {
		tokens = append(tokens, t.Token)
	}
	return tokens
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byName  map[string]*entity.User
	markers map[string]time.Time
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		byName:  make(map[string]*entity.User),
		markers: make(map[string]time.Time),
	}
	for _, user := range users {
		repo.byName[user.Username] = user
	}
	return repo
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byName[username]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUID(ctx context.Context, uid string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byName {
		if user.UID == uid {
			return user, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) SetRefreshMarker(ctx context.Context, username string, refreshAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[username] = refreshAt
	return nil
}

func (r *fakeUserRepo) DeleteRefreshMarker(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.markers, username)
	return nil
}

func (r *fakeUserRepo) marker(username string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.markers[username]
	return at, ok
}

type sendCall struct {
	Tokens  []string
	Payload Payload
}

type fakePushSender struct {
	mu      sync.Mutex
	calls   []sendCall
	results map[string]SendResult
	err     error
}

func newFakePushSender() *fakePushSender {
	return &fakePushSender{results: make(map[string]SendResult)}
}

func (s *fakePushSender) SendMulticast(ctx context.Context, tokens []string, payload Payload) ([]SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sendCall{Tokens: tokens, Payload: payload})
	if s.err != nil {
		return nil, s.err
	}
	results := make([]SendResult, len(tokens))
	for i, token := range tokens {
		if result, ok := s.results[token]; ok {
			results[i] = result
			continue
		}
		results[i] = SendResult{Success: true}
	}
	return results, nil
}

type claimsCall struct {
	UID    string
	Claims map[string]interface{}
}

type fakeClaimsSetter struct {
	mu    sync.Mutex
	calls []claimsCall
	err   error
}

func (s *fakeClaimsSetter) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, claimsCall{UID: uid, Claims: claims})
	return s.err
}
