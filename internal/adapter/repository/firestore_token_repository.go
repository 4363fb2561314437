package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"talkie/internal/domain/entity"
	"talkie/internal/domain/repository"
	"talkie/pkg/errors"
)

type firestoreTokenRepository struct {
	client *firestore.Client
}

func NewFirestoreTokenRepository(client *firestore.Client) repository.TokenRepository {
	return &firestoreTokenRepository{
		client: client,
	}
}

type tokenDoc struct {
	CreatedAt time.Time `firestore:"createdAt"`
}

func (r *firestoreTokenRepository) tokensCol(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection("tokens")
}

func (r *firestoreTokenRepository) ListByUser(ctx context.Context, userID string) ([]*entity.PushToken, error) {
	iter := r.tokensCol(userID).Documents(ctx)
	defer iter.Stop()

	var tokens []*entity.PushToken
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate push tokens", err)
		}

		var stored tokenDoc
		if err := doc.DataTo(&stored); err != nil {
			return nil, errors.Internal("Failed to parse push token data", err)
		}

		tokens = append(tokens, &entity.PushToken{
			Token:     doc.Ref.ID,
			UserID:    userID,
			CreatedAt: stored.CreatedAt,
		})
	}

	return tokens, nil
}

func (r *firestoreTokenRepository) Delete(ctx context.Context, userID, token string) error {
	// Firestore deletes are idempotent; deleting a missing token succeeds.
	_, err := r.tokensCol(userID).Doc(token).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete push token", err)
	}

	return nil
}
