package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationMessage NotificationKind = "message"
	NotificationPost    NotificationKind = "post"
	NotificationSystem  NotificationKind = "system"
)

type Notification struct {
	ID        string           `bson:"_id" json:"id"`
	UserID    string           `bson:"user_id" json:"userId"`
	Kind      NotificationKind `bson:"kind" json:"kind"`
	Payload   map[string]any   `bson:"payload,omitempty" json:"payload,omitempty"`
	Read      bool             `bson:"read" json:"read"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	DeleteByUser(ctx context.Context, userID string) error
	EnsureIndexes(ctx context.Context) error
}

func NewMessageNotification(userID, conversationID, senderID, preview string) *Notification {
	return &Notification{
		ID:     uuid.NewString(),
		UserID: userID,
		Kind:   NotificationMessage,
		Payload: map[string]any{
			"chatId":   conversationID,
			"senderId": senderID,
			"preview":  preview,
		},
		CreatedAt: time.Now().UTC(),
	}
}
