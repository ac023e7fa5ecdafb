package messaging

import "github.com/homelyhq/homely/internal/domain"

const (
	NotificationsQueue = "notifications"
	DeadLetterQueue    = "dead_letter_queue"
)

type MessageEventData struct {
	Message      domain.Message `json:"message"`
	RecipientID  string         `json:"recipientId"`
	Preview      string         `json:"preview"`
	Conversation string         `json:"conversationId"`
}

type UserEventData struct {
	UserID string `json:"userId"`
}
