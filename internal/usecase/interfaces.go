package usecase

import "context"

// Error codes reported by the push transport for tokens that should be
// removed from storage.
const (
	PushErrUnregistered    = "messaging/registration-token-not-registered"
	PushErrInvalidArgument = "messaging/invalid-argument"
)

// Payload is a push notification payload.
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

// SendResult is the per-token outcome of a multicast send.
type SendResult struct {
	Success   bool
	ErrorCode string
}

// PushSender sends one multicast push request. Implemented by the FCM client;
// tests substitute an in-memory fake.
type PushSender interface {
	SendMulticast(ctx context.Context, tokens []string, payload Payload) ([]SendResult, error)
}

// ClaimsSetter attaches custom claims to an auth account.
type ClaimsSetter interface {
	SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}
