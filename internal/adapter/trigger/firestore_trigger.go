package trigger

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talkie/internal/adapter/repository"
	"talkie/internal/domain/entity"
	"talkie/internal/usecase"
	"talkie/pkg/logger"
)

// Dispatcher binds Firestore change streams to the reactive engines. Each
// watch runs on its own goroutine; handlers are at-least-once and must
// tolerate replays. Documents that already existed when the watch started are
// only cached, never re-fired.
type Dispatcher struct {
	client    *firestore.Client
	lifecycle *usecase.ChatLifecycleUseCase
	fanout    *usecase.MessageFanoutUseCase
	claims    *usecase.TokenClaimsUseCase

	started   time.Time
	prevChats map[string]*entity.Chat
	prevUsers map[string]*entity.User
}

func NewDispatcher(
	client *firestore.Client,
	lifecycle *usecase.ChatLifecycleUseCase,
	fanout *usecase.MessageFanoutUseCase,
	claims *usecase.TokenClaimsUseCase,
) *Dispatcher {
	return &Dispatcher{
		client:    client,
		lifecycle: lifecycle,
		fanout:    fanout,
		claims:    claims,
		prevChats: make(map[string]*entity.Chat),
		prevUsers: make(map[string]*entity.User),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.started = time.Now()

	go d.watchChats(ctx)
	go d.watchMessages(ctx)
	go d.watchUserChatDeletions(ctx)
	go d.watchUsers(ctx)
}

func (d *Dispatcher) watchChats(ctx context.Context) {
	iter := d.client.Collection("chats").Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			logger.Error("Chat watch stream failed: %v", err)
			return
		}

		for _, change := range snap.Changes {
			switch change.Kind {
			case firestore.DocumentAdded:
				chat, err := repository.ChatFromDoc(change.Doc)
				if err != nil {
					logger.Error("Failed to parse chat %s: %v", change.Doc.Ref.ID, err)
					continue
				}
				d.prevChats[chat.ID] = chat
				if change.Doc.CreateTime.After(d.started) {
					d.lifecycle.OnChatCreated(ctx, chat)
				}

			case firestore.DocumentModified:
				after, err := repository.ChatFromDoc(change.Doc)
				if err != nil {
					logger.Error("Failed to parse chat %s: %v", change.Doc.Ref.ID, err)
					continue
				}
				before := d.prevChats[after.ID]
				d.prevChats[after.ID] = after
				if before == nil {
					logger.Warn("No prior snapshot for updated chat %s, skipping diff", after.ID)
					continue
				}
				d.lifecycle.OnChatUpdated(ctx, before, after)

			case firestore.DocumentRemoved:
				delete(d.prevChats, change.Doc.Ref.ID)
			}
		}
	}
}

func (d *Dispatcher) watchMessages(ctx context.Context) {
	iter := d.client.CollectionGroup("messages").Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			logger.Error("Message watch stream failed: %v", err)
			return
		}

		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			if !change.Doc.CreateTime.After(d.started) {
				continue
			}

			message, err := repository.MessageFromDoc(change.Doc)
			if err != nil {
				logger.Error("Failed to parse message %s: %v", change.Doc.Ref.ID, err)
				continue
			}
			d.fanout.OnMessageCreated(ctx, message)
		}
	}
}

// watchUserChatDeletions observes the userChats/{user}/chats collection
// group. The subcollection shares its name with the top-level chats
// collection, so events are filtered by path.
func (d *Dispatcher) watchUserChatDeletions(ctx context.Context) {
	iter := d.client.CollectionGroup("chats").Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			logger.Error("UserChat watch stream failed: %v", err)
			return
		}

		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentRemoved {
				continue
			}

			ref := change.Doc.Ref
			owner := ref.Parent.Parent
			if owner == nil || owner.Parent == nil || owner.Parent.ID != "userChats" {
				continue
			}

			d.lifecycle.OnUserChatDeleted(ctx, owner.ID, ref.ID)
		}
	}
}

func (d *Dispatcher) watchUsers(ctx context.Context) {
	iter := d.client.Collection("users").Snapshots(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			logger.Error("User watch stream failed: %v", err)
			return
		}

		for _, change := range snap.Changes {
			username := change.Doc.Ref.ID

			switch change.Kind {
			case firestore.DocumentAdded:
				user, err := repository.UserFromDoc(change.Doc)
				if err != nil {
					logger.Error("Failed to parse user %s: %v", username, err)
					continue
				}
				d.prevUsers[username] = user
				if change.Doc.CreateTime.After(d.started) {
					d.claims.OnUserWritten(ctx, username, nil, user)
				}

			case firestore.DocumentModified:
				after, err := repository.UserFromDoc(change.Doc)
				if err != nil {
					logger.Error("Failed to parse user %s: %v", username, err)
					continue
				}
				before := d.prevUsers[username]
				d.prevUsers[username] = after
				d.claims.OnUserWritten(ctx, username, before, after)

			case firestore.DocumentRemoved:
				before := d.prevUsers[username]
				delete(d.prevUsers, username)
				d.claims.OnUserWritten(ctx, username, before, nil)
			}
		}
	}
}
