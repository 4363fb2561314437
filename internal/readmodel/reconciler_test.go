package readmodel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkie/internal/domain/entity"
	"talkie/pkg/errors"
)

type fakeStreams struct {
	mu        sync.Mutex
	userChats chan UserChatEvent
	chats     map[string]chan ChatEvent
	watches   map[string]int
	cancelled map[string]int
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{
		userChats: make(chan UserChatEvent, 16),
		chats:     make(map[string]chan ChatEvent),
		watches:   make(map[string]int),
		cancelled: make(map[string]int),
	}
}

func (s *fakeStreams) WatchUserChats(ctx context.Context, userID string) (<-chan UserChatEvent, error) {
	return s.userChats, nil
}

func (s *fakeStreams) WatchChat(ctx context.Context, chatID string) (<-chan ChatEvent, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches[chatID]++
	ch := s.chatChannelLocked(chatID)
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cancelled[chatID]++
	}
	return ch, cancel, nil
}

func (s *fakeStreams) chatChannelLocked(chatID string) chan ChatEvent {
	ch, ok := s.chats[chatID]
	if !ok {
		ch = make(chan ChatEvent, 16)
		s.chats[chatID] = ch
	}
	return ch
}

func (s *fakeStreams) emitChat(chatID string, ev ChatEvent) {
	s.mu.Lock()
	ch := s.chatChannelLocked(chatID)
	s.mu.Unlock()
	ch <- ev
}

func (s *fakeStreams) watchCount(chatID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watches[chatID]
}

func (s *fakeStreams) cancelCount(chatID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled[chatID]
}

type fakeNavigator struct {
	mu        sync.Mutex
	active    string
	homeCalls int
}

func (n *fakeNavigator) ActiveChatID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

func (n *fakeNavigator) NavigateHome() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = ""
	n.homeCalls++
}

func (n *fakeNavigator) setActive(chatID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = chatID
}

func (n *fakeNavigator) homeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.homeCalls
}

type fakeProfiles struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeProfiles(users ...*entity.User) *fakeProfiles {
	p := &fakeProfiles{users: make(map[string]*entity.User)}
	for _, u := range users {
		p.users[u.Username] = u
	}
	return p
}

func (p *fakeProfiles) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.users[username]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

type reconcilerFixture struct {
	streams *fakeStreams
	nav     *fakeNavigator
	rec     *Reconciler
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
}

func startReconciler(t *testing.T, userID string, profiles *fakeProfiles) *reconcilerFixture {
	t.Helper()
	streams := newFakeStreams()
	nav := &fakeNavigator{}
	rec := NewReconciler(streams, profiles, nav, userID)

	ctx, cancel := context.WithCancel(context.Background())
	f := &reconcilerFixture{streams: streams, nav: nav, rec: rec, cancel: cancel, done: make(chan struct{})}
	go func() {
		f.runErr = rec.Run(ctx)
		close(f.done)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Error("reconciler did not stop")
		}
	})
	return f
}

func userChat(id string, unread int, updatedAt time.Time) entity.UserChat {
	return entity.UserChat{ID: id, UserID: "me", ChatID: id, UnreadCount: unread, UpdatedAt: updatedAt}
}

func waitLen(t *testing.T, rec *Reconciler, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return rec.Len() == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconcilerAddsAggregates(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 2, time.Now())}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, GroupName: "Team", Members: []string{"me", "bob", "carol"}}})

	waitLen(t, f.rec, 1)

	agg, ok := f.rec.ByChatID("g1")
	require.True(t, ok)
	assert.Equal(t, "Team", agg.Chat.GroupName)
	assert.Equal(t, 2, agg.UserChat.UnreadCount)
	assert.Nil(t, agg.OtherUser)
}

func TestReconcilerResolvesOtherProfile(t *testing.T) {
	profiles := newFakeProfiles(&entity.User{Username: "bob", FirstName: "Bob"})
	f := startReconciler(t, "me", profiles)

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("p1", 0, time.Now())}
	f.streams.emitChat("p1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "p1", Members: []string{"me", "bob"}}})

	waitLen(t, f.rec, 1)

	agg, _ := f.rec.ByChatID("p1")
	require.NotNil(t, agg.OtherUser)
	assert.Equal(t, "Bob", agg.OtherUser.FirstName)
}

func TestReconcilerUnresolvedProfileStillAggregates(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("p1", 0, time.Now())}
	f.streams.emitChat("p1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "p1", Members: []string{"me", "ghost"}}})

	waitLen(t, f.rec, 1)

	agg, _ := f.rec.ByChatID("p1")
	assert.Nil(t, agg.OtherUser)
}

func TestReconcilerRejectsMalformedPrivateChat(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("p1", 0, time.Now())}
	f.streams.emitChat("p1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "p1", Members: []string{"me", "bob", "carol"}}})

	// A valid chat after it proves the bad one was dropped, not queued.
	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 0, time.Now())}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, Members: []string{"me", "bob"}}})

	waitLen(t, f.rec, 1)
	_, ok := f.rec.ByChatID("p1")
	assert.False(t, ok)
}

func TestReconcilerModifiedUserChat(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 0, time.Now())}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, Members: []string{"me", "bob"}}})
	waitLen(t, f.rec, 1)

	f.streams.userChats <- UserChatEvent{Kind: Modified, UserChat: userChat("g1", 5, time.Now())}

	require.Eventually(t, func() bool {
		agg, ok := f.rec.ByChatID("g1")
		return ok && agg.UserChat.UnreadCount == 5
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconcilerModifiedChat(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 0, time.Now())}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, GroupName: "Old", Members: []string{"me", "bob"}}})
	waitLen(t, f.rec, 1)

	f.streams.emitChat("g1", ChatEvent{Kind: Modified, Chat: entity.Chat{ID: "g1", IsGroup: true, GroupName: "New", Members: []string{"me", "bob"}}})

	require.Eventually(t, func() bool {
		agg, ok := f.rec.ByChatID("g1")
		return ok && agg.Chat.GroupName == "New"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconcilerRemovedUserChatTearsDown(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	uc := userChat("g1", 0, time.Now())
	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: uc}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, Members: []string{"me", "bob"}}})
	waitLen(t, f.rec, 1)

	f.nav.setActive("g1")
	f.streams.userChats <- UserChatEvent{Kind: Removed, UserChat: uc}

	waitLen(t, f.rec, 0)
	require.Eventually(t, func() bool {
		return f.streams.cancelCount("g1") == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.nav.homeCount())
}

func TestReconcilerRemovedUserChatInactiveNoNavigation(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	uc := userChat("g1", 0, time.Now())
	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: uc}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, Members: []string{"me", "bob"}}})
	waitLen(t, f.rec, 1)

	f.nav.setActive("other")
	f.streams.userChats <- UserChatEvent{Kind: Removed, UserChat: uc}

	waitLen(t, f.rec, 0)
	assert.Equal(t, 0, f.nav.homeCount())
}

func TestReconcilerRemovedChatTearsDown(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 0, time.Now())}
	chat := entity.Chat{ID: "g1", IsGroup: true, Members: []string{"me", "bob"}}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: chat})
	waitLen(t, f.rec, 1)

	f.streams.emitChat("g1", ChatEvent{Kind: Removed, Chat: chat})

	waitLen(t, f.rec, 0)
	require.Eventually(t, func() bool {
		return f.streams.cancelCount("g1") == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconcilerReplayedAddDoesNotDuplicate(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 1, time.Now())}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, Members: []string{"me", "bob"}}})
	waitLen(t, f.rec, 1)

	// A replayed add behaves like a modify and opens no second subscription.
	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 7, time.Now())}

	require.Eventually(t, func() bool {
		agg, ok := f.rec.ByChatID("g1")
		return ok && agg.UserChat.UnreadCount == 7
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.rec.Len())
	assert.Equal(t, 1, f.streams.watchCount("g1"))
}

func TestReconcilerChatsOrderedByActivity(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	now := time.Now()
	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("old", 0, now.Add(-time.Hour))}
	f.streams.emitChat("old", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "old", IsGroup: true, Members: []string{"me", "bob"}}})
	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("new", 0, now)}
	f.streams.emitChat("new", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "new", IsGroup: true, Members: []string{"me", "bob"}}})

	waitLen(t, f.rec, 2)

	chats := f.rec.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, "new", chats[0].Chat.ID)
	assert.Equal(t, "old", chats[1].Chat.ID)
}

func TestReconcilerStreamCloseTearsDownAll(t *testing.T) {
	f := startReconciler(t, "me", newFakeProfiles())

	f.streams.userChats <- UserChatEvent{Kind: Added, UserChat: userChat("g1", 0, time.Now())}
	f.streams.emitChat("g1", ChatEvent{Kind: Added, Chat: entity.Chat{ID: "g1", IsGroup: true, Members: []string{"me", "bob"}}})
	waitLen(t, f.rec, 1)

	close(f.streams.userChats)

	select {
	case <-f.done:
		assert.NoError(t, f.runErr)
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop on stream close")
	}
	assert.Equal(t, 1, f.streams.cancelCount("g1"))
}
