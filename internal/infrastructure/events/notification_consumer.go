package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/rabbitmq/amqp091-go"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/contracts"
	"github.com/homelyhq/homely/internal/infrastructure/messaging"
)

// notificationConsumer materializes Notification records from broker events.
type notificationConsumer struct {
	rabbitmq      *messaging.RabbitMQ
	notifications domain.NotificationRepository
}

func NewNotificationConsumer(rabbitmq *messaging.RabbitMQ, notifications domain.NotificationRepository) *notificationConsumer {
	return &notificationConsumer{
		rabbitmq:      rabbitmq,
		notifications: notifications,
	}
}

func (c *notificationConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.NotificationsQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			return err
		}

		switch msg.RoutingKey {
		case contracts.EventMessageCreated:
			var payload messaging.MessageEventData
			if err := json.Unmarshal(message.Data, &payload); err != nil {
				log.Printf("Failed to unmarshal message event: %v", err)
				return err
			}

			notification := domain.NewMessageNotification(
				payload.RecipientID,
				payload.Conversation,
				payload.Message.SenderID,
				payload.Preview,
			)

			return c.notifications.Create(ctx, notification)

		case contracts.EventUserDeleted:
			var payload messaging.UserEventData
			if err := json.Unmarshal(message.Data, &payload); err != nil {
				log.Printf("Failed to unmarshal user event: %v", err)
				return err
			}

			return c.notifications.DeleteByUser(ctx, payload.UserID)

		default:
			log.Printf("Ignoring event with routing key %s", msg.RoutingKey)
			return nil
		}
	})
}
