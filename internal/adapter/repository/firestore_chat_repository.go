package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// chatDoc is the stored shape of a chat. Members and createdBy are document
// references into the users collection; entities carry plain ids.
type chatDoc struct {
	IsGroup       bool                     `firestore:"isGroup"`
	GroupName     string                   `firestore:"groupName,omitempty"`
	GroupImageURL string                   `firestore:"groupImageUrl,omitempty"`
	Members       []*firestore.DocumentRef `firestore:"members"`
	CreatedBy     *firestore.DocumentRef   `firestore:"createdBy"`
	Metadata      *chatMetadataDoc         `firestore:"metadata,omitempty"`
	CreatedAt     time.Time                `firestore:"createdAt"`
	UpdatedAt     time.Time                `firestore:"updatedAt"`
}

type chatMetadataDoc struct {
	UpdatedFrom string `firestore:"updatedFrom,omitempty"`
}

func (r *firestoreChatRepository) userRef(userID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID)
}

func (r *firestoreChatRepository) toDoc(chat *entity.Chat) *chatDoc {
	doc := &chatDoc{
		IsGroup:       chat.IsGroup,
		GroupName:     chat.GroupName,
		GroupImageURL: chat.GroupImageURL,
		CreatedBy:     r.userRef(chat.CreatedBy),
		CreatedAt:     chat.CreatedAt,
		UpdatedAt:     chat.UpdatedAt,
	}
	for _, m := range chat.Members {
		doc.Members = append(doc.Members, r.userRef(m))
	}
	if chat.Metadata != nil {
		doc.Metadata = &chatMetadataDoc{UpdatedFrom: chat.Metadata.UpdatedFrom}
	}
	return doc
}

// ChatFromDoc converts a chat document snapshot into its entity. Exported for
// the trigger runtime, which receives raw snapshots from change streams.
func ChatFromDoc(doc *firestore.DocumentSnapshot) (*entity.Chat, error) {
	var stored chatDoc
	if err := doc.DataTo(&stored); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	chat := &entity.Chat{
		ID:            doc.Ref.ID,
		IsGroup:       stored.IsGroup,
		GroupName:     stored.GroupName,
		GroupImageURL: stored.GroupImageURL,
		CreatedAt:     stored.CreatedAt,
		UpdatedAt:     stored.UpdatedAt,
	}
	for _, m := range stored.Members {
		if m != nil {
			chat.Members = append(chat.Members, m.ID)
		}
	}
	if stored.CreatedBy != nil {
		chat.CreatedBy = stored.CreatedBy.ID
	}
	if stored.Metadata != nil {
		chat.Metadata = &entity.ChatMetadata{UpdatedFrom: stored.Metadata.UpdatedFrom}
	}
	return chat, nil
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, r.toDoc(chat))
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	return ChatFromDoc(doc)
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	chat.UpdatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, r.toDoc(chat))
	if err != nil {
		return errors.Internal("Failed to update chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("chats").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	docRef := r.client.Collection("chats").Doc(chatID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var stored chatDoc
		if err := doc.DataTo(&stored); err != nil {
			return err
		}

		var remaining []*firestore.DocumentRef
		for _, m := range stored.Members {
			if m != nil && m.ID != userID {
				remaining = append(remaining, m)
			}
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "members", Value: remaining},
			{Path: "metadata", Value: &chatMetadataDoc{UpdatedFrom: entity.UpdatedFromLeaveGroup}},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", err)
		}
		return errors.Internal("Failed to remove chat member", err)
	}

	return nil
}
