package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/errors"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

type messageDoc struct {
	Text              string                 `firestore:"text,omitempty"`
	FromUser          *firestore.DocumentRef `firestore:"fromUser,omitempty"`
	AttachmentsURL    []string               `firestore:"attachmentsUrl,omitempty"`
	IsRead            bool                   `firestore:"isRead"`
	ReadBy            []string               `firestore:"readBy,omitempty"`
	IsPinned          bool                   `firestore:"isPinned"`
	SystemMessageType string                 `firestore:"systemMessageType,omitempty"`
	Data              map[string]interface{} `firestore:"data,omitempty"`
	CreatedAt         time.Time              `firestore:"createdAt"`
}

func (r *firestoreMessageRepository) messagesCol(chatID string) *firestore.CollectionRef {
	return r.client.Collection("chats").Doc(chatID).Collection("messages")
}

// MessageFromDoc converts a message document snapshot into its entity. The
// chat id is the grandparent document of the messages subcollection.
func MessageFromDoc(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var stored messageDoc
	if err := doc.DataTo(&stored); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	message := &entity.Message{
		ID:                doc.Ref.ID,
		Text:              stored.Text,
		AttachmentURLs:    stored.AttachmentsURL,
		IsRead:            stored.IsRead,
		ReadBy:            stored.ReadBy,
		IsPinned:          stored.IsPinned,
		SystemMessageType: entity.SystemMessageType(stored.SystemMessageType),
		Data:              stored.Data,
		CreatedAt:         stored.CreatedAt,
	}
	if stored.FromUser != nil {
		message.FromUser = stored.FromUser.ID
	}
	if parent := doc.Ref.Parent; parent != nil && parent.Parent != nil {
		message.ChatID = parent.Parent.ID
	}
	return message, nil
}

func (r *firestoreMessageRepository) toDoc(message *entity.Message) *messageDoc {
	doc := &messageDoc{
		Text:              message.Text,
		AttachmentsURL:    message.AttachmentURLs,
		IsRead:            message.IsRead,
		ReadBy:            message.ReadBy,
		IsPinned:          message.IsPinned,
		SystemMessageType: string(message.SystemMessageType),
		Data:              message.Data,
		CreatedAt:         message.CreatedAt,
	}
	if message.FromUser != "" {
		doc.FromUser = r.client.Collection("users").Doc(message.FromUser)
	}
	return doc
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.messagesCol(message.ChatID).Doc(message.ID).Set(ctx, r.toDoc(message))
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) CreateSystemMessage(ctx context.Context, chatID string, event entity.SystemEvent) error {
	_, _, err := r.messagesCol(chatID).Add(ctx, map[string]interface{}{
		"systemMessageType": string(event.SystemType()),
		"data":              event,
		"createdAt":         time.Now(),
	})
	if err != nil {
		return errors.Internal("Failed to create system message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.messagesCol(chatID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", nil)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	return MessageFromDoc(doc)
}

func (r *firestoreMessageRepository) ListByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.messagesCol(chatID).OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages for chat", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		message, err := MessageFromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, message)
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) SaveAttachment(ctx context.Context, chatID string, attachment *entity.Attachment) error {
	_, _, err := r.client.Collection("chats").Doc(chatID).Collection("files").Add(ctx, map[string]interface{}{
		"message":   r.messagesCol(chatID).Doc(attachment.MessageID),
		"url":       attachment.URL,
		"isMedia":   attachment.IsMedia,
		"createdAt": time.Now(),
	})
	if err != nil {
		return errors.Internal("Failed to save attachment", err)
	}

	return nil
}

func (r *firestoreMessageRepository) SaveLink(ctx context.Context, chatID string, link *entity.Link) error {
	_, _, err := r.client.Collection("chats").Doc(chatID).Collection("links").Add(ctx, map[string]interface{}{
		"message":   r.messagesCol(chatID).Doc(link.MessageID),
		"url":       link.URL,
		"createdAt": time.Now(),
	})
	if err != nil {
		return errors.Internal("Failed to save link", err)
	}

	return nil
}

func (r *firestoreMessageRepository) TogglePinned(ctx context.Context, chatID, messageID string) error {
	messageRef := r.messagesCol(chatID).Doc(messageID)
	pinnedRef := r.client.Collection("chats").Doc(chatID).Collection("pinnedMessage").Doc(messageID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(messageRef)
		if err != nil {
			return err
		}

		var stored messageDoc
		if err := doc.DataTo(&stored); err != nil {
			return err
		}

		if stored.IsPinned {
			if err := tx.Delete(pinnedRef); err != nil {
				return err
			}
			return tx.Update(messageRef, []firestore.Update{{Path: "isPinned", Value: false}})
		}

		if err := tx.Set(pinnedRef, map[string]interface{}{
			"message":   messageRef,
			"createdAt": time.Now(),
		}); err != nil {
			return err
		}
		return tx.Update(messageRef, []firestore.Update{{Path: "isPinned", Value: true}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to toggle pinned message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, chatID, messageID, userID string, isGroup bool) error {
	messageRef := r.messagesCol(chatID).Doc(messageID)
	userChatRef := r.client.Collection("userChats").Doc(userID).Collection("chats").Doc(chatID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		msgDoc, err := tx.Get(messageRef)
		if err != nil {
			return err
		}

		var msg messageDoc
		if err := msgDoc.DataTo(&msg); err != nil {
			return err
		}

		ucDoc, err := tx.Get(userChatRef)
		if err != nil {
			return err
		}

		var uc userChatDoc
		if err := ucDoc.DataTo(&uc); err != nil {
			return err
		}

		updates := []firestore.Update{{Path: "isRead", Value: true}}
		if isGroup {
			alreadyRead := false
			for _, reader := range msg.ReadBy {
				if reader == userID {
					alreadyRead = true
					break
				}
			}
			if !alreadyRead {
				updates = append(updates, firestore.Update{
					Path:  "readBy",
					Value: append(msg.ReadBy, userID),
				})
			}
		}
		if err := tx.Update(messageRef, updates); err != nil {
			return err
		}

		unread := uc.UnreadCount - 1
		if unread < 0 {
			unread = 0
		}
		return tx.Update(userChatRef, []firestore.Update{
			{Path: "unreadCount", Value: unread},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to mark message as read", err)
	}

	return nil
}
