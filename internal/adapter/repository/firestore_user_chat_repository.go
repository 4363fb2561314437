package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/errors"
)

type firestoreUserChatRepository struct {
	client *firestore.Client
}

func NewFirestoreUserChatRepository(client *firestore.Client) repository.UserChatRepository {
	return &firestoreUserChatRepository{
		client: client,
	}
}

type userChatDoc struct {
	Chat        *firestore.DocumentRef `firestore:"chat"`
	UnreadCount int                    `firestore:"unreadCount"`
	IsStarred   bool                   `firestore:"isStarred"`
	CreatedAt   time.Time              `firestore:"createdAt"`
	UpdatedAt   time.Time              `firestore:"updatedAt"`
}

func (r *firestoreUserChatRepository) docRef(userID, chatID string) *firestore.DocumentRef {
	return r.client.Collection("userChats").Doc(userID).Collection("chats").Doc(chatID)
}

// UserChatFromDoc converts a userChat document snapshot into its entity. The
// owning user id is the grandparent document of the subcollection entry.
func UserChatFromDoc(doc *firestore.DocumentSnapshot) (*entity.UserChat, error) {
	var stored userChatDoc
	if err := doc.DataTo(&stored); err != nil {
		return nil, errors.Internal("Failed to parse userChat data", err)
	}

	userChat := &entity.UserChat{
		ID:          doc.Ref.ID,
		UnreadCount: stored.UnreadCount,
		IsStarred:   stored.IsStarred,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.UpdatedAt,
	}
	if stored.Chat != nil {
		userChat.ChatID = stored.Chat.ID
	}
	if parent := doc.Ref.Parent; parent != nil && parent.Parent != nil {
		userChat.UserID = parent.Parent.ID
	}
	return userChat, nil
}

func (r *firestoreUserChatRepository) Get(ctx context.Context, userID, chatID string) (*entity.UserChat, error) {
	doc, err := r.docRef(userID, chatID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("UserChat", nil)
		}
		return nil, errors.Internal("Failed to get userChat", err)
	}

	return UserChatFromDoc(doc)
}

func (r *firestoreUserChatRepository) Create(ctx context.Context, userChat *entity.UserChat) error {
	now := time.Now()
	if userChat.CreatedAt.IsZero() {
		userChat.CreatedAt = now
	}
	if userChat.UpdatedAt.IsZero() {
		userChat.UpdatedAt = now
	}
	userChat.ID = userChat.ChatID

	_, err := r.docRef(userChat.UserID, userChat.ChatID).Set(ctx, &userChatDoc{
		Chat:        r.client.Collection("chats").Doc(userChat.ChatID),
		UnreadCount: userChat.UnreadCount,
		IsStarred:   userChat.IsStarred,
		CreatedAt:   userChat.CreatedAt,
		UpdatedAt:   userChat.UpdatedAt,
	})
	if err != nil {
		return errors.Internal("Failed to create userChat", err)
	}

	return nil
}

func (r *firestoreUserChatRepository) Delete(ctx context.Context, userID, chatID string) error {
	_, err := r.docRef(userID, chatID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete userChat", err)
	}

	return nil
}

func (r *firestoreUserChatRepository) ListByUser(ctx context.Context, userID string) ([]*entity.UserChat, error) {
	iter := r.client.Collection("userChats").Doc(userID).Collection("chats").Documents(ctx)
	defer iter.Stop()

	var userChats []*entity.UserChat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate userChats", err)
		}

		userChat, err := UserChatFromDoc(doc)
		if err != nil {
			return nil, err
		}
		userChats = append(userChats, userChat)
	}

	return userChats, nil
}

func (r *firestoreUserChatRepository) Touch(ctx context.Context, userID, chatID string) error {
	_, err := r.docRef(userID, chatID).Update(ctx, []firestore.Update{
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("UserChat", nil)
		}
		return errors.Internal("Failed to touch userChat", err)
	}

	return nil
}

func (r *firestoreUserChatRepository) IncrementUnread(ctx context.Context, userID, chatID string) error {
	docRef := r.docRef(userID, chatID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var stored userChatDoc
		if err := doc.DataTo(&stored); err != nil {
			return err
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "unreadCount", Value: stored.UnreadCount + 1},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("UserChat", err)
		}
		return errors.Internal("Failed to increment unread count", err)
	}

	return nil
}
