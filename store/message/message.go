package message

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// Message is a single private message between two users. The json tags
// are part of the wire contract: event payloads carry camelCase keys.
type Message struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	Edited         bool      `json:"edited"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

var (
	ErrMessageNotFound = errors.New("message not found")
)

// Store defines message persistence operations.
type Store interface {
	Create(ctx context.Context, msg *Message) error
	Get(ctx context.Context, id string) (*Message, error)
	UpdateContent(ctx context.Context, id, content string) (*Message, error)
	Delete(ctx context.Context, id string) error
	ListByConversation(ctx context.Context, conversationID string) ([]*Message, error)
}

// ConversationID derives the pairing key for two user ids: sort
// lexicographically, join with an underscore. Order-independent, so both
// participants compute the same key. No conversation row is ever stored;
// the key is recomputed on demand.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
