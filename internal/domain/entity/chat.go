package entity

import "time"

// UpdatedFromLeaveGroup marks a chat update that originated from the
// leave-group entry point, so the update trigger skips membership diffing.
const UpdatedFromLeaveGroup = "leaveGroup"

type ChatMetadata struct {
	UpdatedFrom string `json:"updated_from,omitempty"`
}

type Chat struct {
	ID            string        `json:"id"`
	IsGroup       bool          `json:"is_group"`
	GroupName     string        `json:"group_name,omitempty"`
	GroupImageURL string        `json:"group_image_url,omitempty"`
	Members       []string      `json:"members"`
	CreatedBy     string        `json:"created_by"`
	Metadata      *ChatMetadata `json:"metadata,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (c *Chat) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// OtherMember returns the member that is not userID. Only meaningful for
// private chats, which have exactly 2 members.
func (c *Chat) OtherMember(userID string) (string, bool) {
	for _, m := range c.Members {
		if m != userID {
			return m, true
		}
	}
	return "", false
}
