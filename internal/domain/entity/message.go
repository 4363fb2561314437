package entity

import "time"

type Message struct {
	ID                string                 `json:"id"`
	ChatID            string                 `json:"chat_id"`
	Text              string                 `json:"text,omitempty"`
	FromUser          string                 `json:"from_user,omitempty"`
	AttachmentURLs    []string               `json:"attachments_url,omitempty"`
	IsRead            bool                   `json:"is_read"`
	ReadBy            []string               `json:"read_by,omitempty"` // group chats only
	IsPinned          bool                   `json:"is_pinned"`
	SystemMessageType SystemMessageType      `json:"system_message_type,omitempty"`
	Data              map[string]interface{} `json:"data,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// IsSystem reports whether the message records a lifecycle event rather than
// user content. System messages never trigger fan-out or notifications.
func (m *Message) IsSystem() bool {
	return m.SystemMessageType != ""
}

func (m *Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r == userID {
			return true
		}
	}
	return false
}
