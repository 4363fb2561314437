package entity

import "time"

// TokenRetention is how long a push token is considered live. Older tokens
// are still included in a send attempt but queued for removal afterwards.
const TokenRetention = 30 * 24 * time.Hour

type PushToken struct {
	Token     string    `json:"token"` // document id
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *PushToken) Expired(now time.Time) bool {
	return t.CreatedAt.Before(now.Add(-TokenRetention))
}
