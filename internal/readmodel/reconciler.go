package readmodel

import (
	"context"
	"sort"
	"sync"

	"talkie/internal/domain/entity"
	"talkie/pkg/logger"
)

type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Removed
)

type UserChatEvent struct {
	Kind     ChangeKind
	UserChat entity.UserChat
}

type ChatEvent struct {
	Kind ChangeKind
	Chat entity.Chat
}

// Streams provides the change streams the reconciler folds into its view.
// WatchChat returns a cancel func that tears the nested subscription down.
type Streams interface {
	WatchUserChats(ctx context.Context, userID string) (<-chan UserChatEvent, error)
	WatchChat(ctx context.Context, chatID string) (<-chan ChatEvent, func(), error)
}

type ProfileResolver interface {
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

// Navigator is the view hook: when the chat currently on screen disappears,
// the reconciler navigates away before dropping the aggregate.
type Navigator interface {
	ActiveChatID() string
	NavigateHome()
}

// ChatAggregate is the per-chat view: the chat document, the user's own
// index entry, and, for private chats, the other member's profile.
type ChatAggregate struct {
	Chat      entity.Chat
	UserChat  entity.UserChat
	OtherUser *entity.User
}

type nestedEvent struct {
	userChat entity.UserChat
	event    ChatEvent
}

// Reconciler maintains the current user's chat list from the userChat change
// stream, opening one nested chat-document subscription per entry. Every
// aggregate owns exactly one nested subscription handle; teardown is the only
// path that cancels it.
type Reconciler struct {
	streams Streams
	users   ProfileResolver
	nav     Navigator
	userID  string

	mu         sync.RWMutex
	aggregates []*ChatAggregate
	cancels    map[string]func()
	nested     chan nestedEvent
}

func NewReconciler(streams Streams, users ProfileResolver, nav Navigator, userID string) *Reconciler {
	return &Reconciler{
		streams: streams,
		users:   users,
		nav:     nav,
		userID:  userID,
		cancels: make(map[string]func()),
		nested:  make(chan nestedEvent),
	}
}

// Run drives the event loop until the context is cancelled or the userChat
// stream closes. All aggregate mutations happen on this goroutine.
func (r *Reconciler) Run(ctx context.Context) error {
	events, err := r.streams.WatchUserChats(ctx, r.userID)
	if err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				r.teardownAll()
				return nil
			}
			r.handleUserChatEvent(ctx, ev)

		case nev := <-r.nested:
			r.handleChatEvent(ctx, nev)

		case <-ctx.Done():
			r.teardownAll()
			return ctx.Err()
		}
	}
}

func (r *Reconciler) handleUserChatEvent(ctx context.Context, ev UserChatEvent) {
	switch ev.Kind {
	case Added:
		r.handleAddedUserChat(ctx, ev.UserChat)
	case Modified:
		r.handleModifiedUserChat(ev.UserChat)
	case Removed:
		r.handleRemovedUserChat(ev.UserChat)
	}
}

func (r *Reconciler) handleAddedUserChat(ctx context.Context, userChat entity.UserChat) {
	r.mu.RLock()
	_, watching := r.cancels[userChat.ID]
	r.mu.RUnlock()
	if watching {
		// Replayed add: the nested subscription already exists.
		r.handleModifiedUserChat(userChat)
		return
	}

	events, cancel, err := r.streams.WatchChat(ctx, userChat.ChatID)
	if err != nil {
		logger.Error("Failed to watch chat %s: %v", userChat.ChatID, err)
		return
	}

	r.mu.Lock()
	r.cancels[userChat.ID] = cancel
	r.mu.Unlock()

	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case r.nested <- nestedEvent{userChat: userChat, event: ev}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *Reconciler) handleModifiedUserChat(userChat entity.UserChat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, agg := range r.aggregates {
		if agg.UserChat.ID == userChat.ID {
			agg.UserChat = userChat
			return
		}
	}
	logger.Error("Chat not found for userChat %s", userChat.ID)
}

func (r *Reconciler) handleRemovedUserChat(userChat entity.UserChat) {
	if r.nav.ActiveChatID() == userChat.ChatID {
		r.nav.NavigateHome()
	}

	r.removeAggregateByUserChatID(userChat.ID)
	r.teardown(userChat.ID)
}

func (r *Reconciler) handleChatEvent(ctx context.Context, nev nestedEvent) {
	switch nev.event.Kind {
	case Added:
		r.handleAddedChat(ctx, nev.userChat, nev.event.Chat)
	case Modified:
		r.handleModifiedChat(nev.event.Chat)
	case Removed:
		r.handleRemovedChat(nev.event.Chat)
	}
}

func (r *Reconciler) handleAddedChat(ctx context.Context, userChat entity.UserChat, chat entity.Chat) {
	r.mu.Lock()
	for _, agg := range r.aggregates {
		if agg.UserChat.ID == userChat.ID {
			// Replayed add: refresh in place.
			agg.Chat = chat
			r.mu.Unlock()
			return
		}
	}
	r.mu.Unlock()

	agg := &ChatAggregate{Chat: chat, UserChat: userChat}

	if !chat.IsGroup {
		if len(chat.Members) != 2 {
			logger.Error("Private chat must have exactly 2 members: %s", chat.ID)
			return
		}

		otherID, _ := chat.OtherMember(r.userID)
		otherUser, err := r.users.GetByUsername(ctx, otherID)
		if err != nil {
			logger.Error("Failed to resolve profile %s for chat %s: %v", otherID, chat.ID, err)
		}
		agg.OtherUser = otherUser
	}

	r.mu.Lock()
	r.aggregates = append(r.aggregates, agg)
	r.mu.Unlock()
}

func (r *Reconciler) handleModifiedChat(chat entity.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, agg := range r.aggregates {
		if agg.Chat.ID == chat.ID {
			agg.Chat = chat
			return
		}
	}
	logger.Error("Chat not found: %s", chat.ID)
}

func (r *Reconciler) handleRemovedChat(chat entity.Chat) {
	r.mu.RLock()
	var userChatID string
	for _, agg := range r.aggregates {
		if agg.Chat.ID == chat.ID {
			userChatID = agg.UserChat.ID
			break
		}
	}
	r.mu.RUnlock()

	if userChatID == "" {
		logger.Error("Chat not found: %s", chat.ID)
		return
	}

	r.removeAggregateByUserChatID(userChatID)
	r.teardown(userChatID)
}

func (r *Reconciler) removeAggregateByUserChatID(userChatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, agg := range r.aggregates {
		if agg.UserChat.ID == userChatID {
			r.aggregates = append(r.aggregates[:i], r.aggregates[i+1:]...)
			return
		}
	}
}

// teardown is the single path that cancels a nested subscription.
func (r *Reconciler) teardown(userChatID string) {
	r.mu.Lock()
	cancel, ok := r.cancels[userChatID]
	delete(r.cancels, userChatID)
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

func (r *Reconciler) teardownAll() {
	r.mu.Lock()
	cancels := r.cancels
	r.cancels = make(map[string]func())
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Chats returns the aggregates ordered by most recent activity first.
func (r *Reconciler) Chats() []ChatAggregate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chats := make([]ChatAggregate, len(r.aggregates))
	for i, agg := range r.aggregates {
		chats[i] = *agg
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UserChat.UpdatedAt.After(chats[j].UserChat.UpdatedAt)
	})
	return chats
}

func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.aggregates)
}

func (r *Reconciler) ByChatID(chatID string) (ChatAggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, agg := range r.aggregates {
		if agg.Chat.ID == chatID {
			return *agg, true
		}
	}
	return ChatAggregate{}, false
}

func (r *Reconciler) ByUserChatID(userChatID string) (ChatAggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, agg := range r.aggregates {
		if agg.UserChat.ID == userChatID {
			return *agg, true
		}
	}
	return ChatAggregate{}, false
}
