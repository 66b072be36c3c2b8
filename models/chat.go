package models

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single entry in a session's ordered history
type ChatMessage struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatSession holds one owner's conversation. A session always contains at
// least the seed greeting; clearing replaces the history with a fresh seed
// rather than deleting the record.
type ChatSession struct {
	OwnerID   string            `bson:"owner_id" json:"owner_id"`
	Messages  []ChatMessage     `bson:"messages" json:"messages"`
	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

type ChatResponse struct {
	Reply     string    `json:"reply"`
	Grounded  bool      `json:"grounded"`
	Timestamp time.Time `json:"timestamp"`
}
