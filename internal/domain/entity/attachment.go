package entity

import "time"

// Attachment, Link and PinnedMessage are derivative records keyed by the
// message they reference.

type Attachment struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	URL       string    `json:"url"`
	IsMedia   bool      `json:"is_media"`
	CreatedAt time.Time `json:"created_at"`
}

type Link struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type PinnedMessage struct {
	MessageID string    `json:"message_id"` // document id, same as the message id
	CreatedAt time.Time `json:"created_at"`
}
