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

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

type userDoc struct {
	UID       string    `firestore:"uid"`
	Username  string    `firestore:"username"`
	FirstName string    `firestore:"firstName"`
	LastName  string    `firestore:"lastName,omitempty"`
	Email     string    `firestore:"email,omitempty"`
	PhotoURL  string    `firestore:"photoUrl,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// UserFromDoc converts a user profile snapshot into its entity. Exported for
// the trigger runtime.
func UserFromDoc(doc *firestore.DocumentSnapshot) (*entity.User, error) {
	var stored userDoc
	if err := doc.DataTo(&stored); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	username := stored.Username
	if username == "" {
		username = doc.Ref.ID
	}

	return &entity.User{
		Username:  username,
		UID:       stored.UID,
		FirstName: stored.FirstName,
		LastName:  stored.LastName,
		Email:     stored.Email,
		PhotoURL:  stored.PhotoURL,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

func (r *firestoreUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(username).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", nil)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	return UserFromDoc(doc)
}

func (r *firestoreUserRepository) GetByUID(ctx context.Context, uid string) (*entity.User, error) {
	iter := r.client.Collection("users").Where("uid", "==", uid).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("User", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query user by uid", err)
	}

	return UserFromDoc(doc)
}

func (r *firestoreUserRepository) SetRefreshMarker(ctx context.Context, username string, refreshAt time.Time) error {
	_, err := r.client.Collection("refreshTime").Doc(username).Set(ctx, map[string]interface{}{
		"refreshTime": refreshAt.UnixMilli(),
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to set refresh marker", err)
	}

	return nil
}

func (r *firestoreUserRepository) DeleteRefreshMarker(ctx context.Context, username string) error {
	_, err := r.client.Collection("refreshTime").Doc(username).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete refresh marker", err)
	}

	return nil
}
