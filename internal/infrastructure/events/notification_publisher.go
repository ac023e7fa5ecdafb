package events

import (
	"context"
	"encoding/json"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/contracts"
	"github.com/homelyhq/homely/internal/infrastructure/messaging"
)

const previewRunes = 120

// NotificationPublisher pushes notification events onto the broker after a
// REST write. Publishing is best-effort: callers log and move on, the write
// itself never depends on the broker.
type NotificationPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewNotificationPublisher(rabbitmq *messaging.RabbitMQ) *NotificationPublisher {
	return &NotificationPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *NotificationPublisher) PublishMessageCreated(ctx context.Context, message domain.Message, recipientID string) error {
	payload := messaging.MessageEventData{
		Message:      message,
		RecipientID:  recipientID,
		Preview:      truncatePreview(message.Text),
		Conversation: message.ConversationID,
	}

	eventJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, contracts.EventMessageCreated, contracts.AmqpMessage{
		RecipientID: recipientID,
		Data:        eventJSON,
	})
}

// PublishUserDeleted fans out an identity deletion so consumers can drop
// anything still addressed to the user.
func (p *NotificationPublisher) PublishUserDeleted(ctx context.Context, userID string) error {
	eventJSON, err := json.Marshal(messaging.UserEventData{UserID: userID})
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, contracts.EventUserDeleted, contracts.AmqpMessage{
		RecipientID: userID,
		Data:        eventJSON,
	})
}

// truncatePreview cuts on a rune boundary so a multi-byte character is
// never split mid-sequence.
func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes])
}
