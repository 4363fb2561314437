package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talkie/internal/readmodel"
	"talkie/pkg/logger"
)

// firestoreStreams adapts Firestore snapshot listeners to the reconciler's
// change-stream contract.
type firestoreStreams struct {
	client *firestore.Client
}

func NewFirestoreStreams(client *firestore.Client) readmodel.Streams {
	return &firestoreStreams{
		client: client,
	}
}

func changeKind(kind firestore.DocumentChangeKind) readmodel.ChangeKind {
	switch kind {
	case firestore.DocumentModified:
		return readmodel.Modified
	case firestore.DocumentRemoved:
		return readmodel.Removed
	default:
		return readmodel.Added
	}
}

func (s *firestoreStreams) WatchUserChats(ctx context.Context, userID string) (<-chan readmodel.UserChatEvent, error) {
	events := make(chan readmodel.UserChatEvent)
	iter := s.client.Collection("userChats").Doc(userID).Collection("chats").Snapshots(ctx)

	go func() {
		defer close(events)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled && ctx.Err() == nil {
					logger.Error("UserChat stream for %s failed: %v", userID, err)
				}
				return
			}

			for _, change := range snap.Changes {
				userChat, err := UserChatFromDoc(change.Doc)
				if err != nil {
					logger.Error("Failed to parse userChat %s: %v", change.Doc.Ref.ID, err)
					continue
				}

				select {
				case events <- readmodel.UserChatEvent{Kind: changeKind(change.Kind), UserChat: *userChat}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

func (s *firestoreStreams) WatchChat(ctx context.Context, chatID string) (<-chan readmodel.ChatEvent, func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)

	events := make(chan readmodel.ChatEvent)
	chats := s.client.Collection("chats")
	iter := chats.Where(firestore.DocumentID, "==", chats.Doc(chatID)).Snapshots(watchCtx)

	go func() {
		defer close(events)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled && watchCtx.Err() == nil {
					logger.Error("Chat stream for %s failed: %v", chatID, err)
				}
				return
			}

			for _, change := range snap.Changes {
				chat, err := ChatFromDoc(change.Doc)
				if err != nil {
					logger.Error("Failed to parse chat %s: %v", change.Doc.Ref.ID, err)
					continue
				}

				select {
				case events <- readmodel.ChatEvent{Kind: changeKind(change.Kind), Chat: *chat}:
				case <-watchCtx.Done():
					return
				}
			}
		}
	}()

	return events, cancel, nil
}
