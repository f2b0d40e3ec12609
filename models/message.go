package models

import "time"

// Message is one directed, append-only entry of the "messages" table.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	JobID       *string   `json:"job_id,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// SendMessageParams holds a new message. SenderID is the caller's verified
// identity.
type SendMessageParams struct {
	SenderID    string  `json:"-" validate:"required,max=128"`
	RecipientID string  `json:"recipient_id" validate:"required,max=128,nefield=SenderID"`
	JobID       *string `json:"job_id,omitempty" validate:"omitempty,max=64"`
	Content     string  `json:"content" validate:"required"`
}

// InboxEntry summarises everything one sender has sent to the inbox owner:
// the latest message and a display name for the sender.
type InboxEntry struct {
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	LastMessage *Message  `json:"last_message"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Later reports whether m sorts after other in conversation order.
func (m *Message) Later(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.After(other.CreatedAt)
	}
	return m.ID > other.ID
}
