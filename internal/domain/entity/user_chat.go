package entity

import "time"

// UserChat is a per-user chat index entry. It is derived fan-out state: the
// chat document's member list is the source of truth, and the server engines
// keep these entries consistent with it.
type UserChat struct {
	ID          string    `json:"id"` // document id, same as the chat id
	UserID      string    `json:"user_id"`
	ChatID      string    `json:"chat_id"`
	UnreadCount int       `json:"unread_count"`
	IsStarred   bool      `json:"is_starred"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
