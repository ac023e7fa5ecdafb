package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxMessageLength = 4096

type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"chatId"`
	SenderID       string    `bson:"sender_id" json:"senderId"`
	Text           string    `bson:"text" json:"text"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]Message, error)
	EnsureIndexes(ctx context.Context) error
}

func NewMessage(conversationID, senderID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if conversationID == "" || senderID == "" || text == "" {
		return nil, ErrInvalidInput
	}
	if len(text) > maxMessageLength {
		return nil, ErrInvalidInput
	}

	return &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
