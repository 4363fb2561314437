package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken verifies an ID token and returns the account uid plus the
// token's custom claims.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, map[string]interface{}, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", nil, err
	}

	return result.UID, result.Claims, nil
}

// SetCustomClaims implements usecase.ClaimsSetter.
func (f *FirebaseAuthClient) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	return f.client.SetCustomUserClaims(ctx, uid, claims)
}

func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	_, err := f.client.GetUser(ctx, "connection-probe")
	if err != nil && auth.IsUserNotFound(err) {
		return nil
	}
	return err
}
