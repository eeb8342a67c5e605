// Package chat stores conversations with the assistant and meters each question.
package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups messages for one user.
type Conversation struct {
	ID        string    `json:"id" firestore:"-" gorm:"primaryKey;type:text"`
	UserID    string    `json:"userId" firestore:"user_id" gorm:"type:text;not null;index"`
	Title     string    `json:"title" firestore:"title" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" firestore:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updated_at"`
}

// TableName pins the relational table name.
func (Conversation) TableName() string { return "conversations" }

// Message is one turn in a conversation.
type Message struct {
	ID             string                      `json:"id" firestore:"-" gorm:"primaryKey;type:text"`
	ConversationID string                      `json:"conversationId" firestore:"conversation_id" gorm:"type:text;not null;index:idx_messages_conversation_created,priority:1"`
	Role           Role                        `json:"role" firestore:"role" gorm:"type:text;not null"`
	Content        string                      `json:"content" firestore:"content" gorm:"type:text;not null"`
	AttachmentIDs  datatypes.JSONSlice[string] `json:"attachmentIds,omitempty" firestore:"attachment_ids" gorm:"type:jsonb"`
	CreatedAt      time.Time                   `json:"createdAt" firestore:"created_at" gorm:"index:idx_messages_conversation_created,priority:2"`
}

// TableName pins the relational table name.
func (Message) TableName() string { return "messages" }

// Repository encapsulates persistence for conversations and messages.
type Repository interface {
	CreateConversation(ctx context.Context, c Conversation) error
	GetConversation(ctx context.Context, conversationID string) (Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	TouchConversation(ctx context.Context, conversationID string, at time.Time) error
	AppendMessage(ctx context.Context, m Message) error
	// RecentMessages returns up to limit of the latest messages, oldest first.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	Messages(ctx context.Context, conversationID string) ([]Message, error)
}

// ErrNotFound indicates the conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// ErrForbidden indicates the conversation belongs to a different user.
var ErrForbidden = errors.New("conversation belongs to another user")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")
