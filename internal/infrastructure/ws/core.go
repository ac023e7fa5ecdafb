// Package ws is the real-time relay: a connection-scoped publish/subscribe
// layer that delivers ephemeral message events to the connections currently
// interested in a conversation. It persists nothing and promises nothing
// beyond best-effort delivery to sockets that are open at the moment of send.
//
// A send_message frame fans out on two independent channels: the room
// channel (receive_message to every joined member except the sender, feeding
// the active chat view) and the direct channel (an event named by the
// frame's "to" value, delivered to every other connection, feeding inbox
// badge updates). Either channel can be switched off in config; both are on
// by default, so a recipient that is both in the room and addressed by "to"
// sees the payload twice.
package ws

import (
	"context"
	"errors"
	"time"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/logging"
	"github.com/homelyhq/homely/internal/infrastructure/metrics"
)

const authorizeTimeout = 5 * time.Second

type Options struct {
	RoomDelivery   bool
	DirectDelivery bool
}

type inboundFrame struct {
	client   *Client
	envelope *Envelope
}

type Core struct {
	registry      *Registry
	register      chan *Client
	unregister    chan *Client
	frames        chan inboundFrame
	conversations domain.ConversationRepository
	logger        logging.Logger
	opts          Options
}

func NewCore(conversations domain.ConversationRepository, logger logging.Logger, opts Options) *Core {
	return &Core{
		registry:      NewRegistry(),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		frames:        make(chan inboundFrame, 256),
		conversations: conversations,
		logger:        logger,
		opts:          opts,
	}
}

func (c *Core) Run() {
	for {
		select {
		case cl := <-c.register:
			c.registry.Add(cl)
			c.logger.Debug(logging.Relay, logging.Connect, "connection registered", map[logging.ExtraKey]any{
				logging.ConnectionID: cl.ID,
				logging.UserID:       cl.UserID,
			})

		case cl := <-c.unregister:
			c.registry.Remove(cl)
			c.logger.Debug(logging.Relay, logging.Disconnect, "connection removed", map[logging.ExtraKey]any{
				logging.ConnectionID: cl.ID,
			})

		case frame := <-c.frames:
			c.dispatch(frame.client, frame.envelope)
		}
	}
}

func (c *Core) Register() chan<- *Client {
	return c.register
}

func (c *Core) Unregister() chan<- *Client {
	return c.unregister
}

func (c *Core) Frames() chan<- inboundFrame {
	return c.frames
}

func (c *Core) Registry() *Registry {
	return c.registry
}

func (c *Core) dispatch(cl *Client, envelope *Envelope) {
	if err := envelope.Validate(); err != nil {
		cl.trySend(NewInvalid(err.Error()))
		return
	}

	metrics.RelayEventsTotal.WithLabelValues(envelope.Event).Inc()

	switch envelope.Event {
	case EventJoinRoom:
		// Participant check hits the database; keep it off the run loop.
		go c.authorizeAndJoin(cl, envelope.ChatID)

	case EventLeaveRoom:
		c.registry.Leave(cl, envelope.ChatID)
		cl.trySend(NewLeft(envelope.ChatID))

	case EventSendMessage:
		c.deliver(cl, envelope)
	}
}

// authorizeAndJoin admits the connection to the room only if its user is a
// participant of the named conversation.
func (c *Core) authorizeAndJoin(cl *Client, chatID string) {
	ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
	defer cancel()

	conversation, err := c.conversations.GetByID(ctx, chatID)
	if err != nil {
		msg := "Failed to load conversation"
		if errors.Is(err, domain.ErrNotFound) {
			msg = "Conversation not found"
		}
		cl.trySend(NewUnauthorized(chatID, msg))
		return
	}

	if !conversation.HasParticipant(cl.UserID) {
		c.logger.Warn(logging.Relay, logging.RoomJoin, "join rejected", map[logging.ExtraKey]any{
			logging.ConnectionID: cl.ID,
			logging.UserID:       cl.UserID,
			logging.RoomID:       chatID,
		})
		cl.trySend(NewUnauthorized(chatID, "Not a participant of this conversation"))
		return
	}

	c.registry.Join(cl, chatID)
	cl.trySend(NewJoined(chatID))
}

func (c *Core) deliver(cl *Client, envelope *Envelope) {
	// Joining is gated on conversation membership; sending is not re-checked
	// here, so a sender need not have joined the room it targets. A room
	// nobody joined is simply an empty multicast.
	if envelope.ChatID != "" && c.opts.RoomDelivery {
		msg := NewReceiveMessage(envelope.ChatID, cl.UserID, envelope.Data)
		if err := c.registry.BroadcastToRoom(envelope.ChatID, cl.ID, msg); err != nil && !errors.Is(err, ErrRoomNotFound) {
			c.logger.Error(logging.Relay, logging.Delivery, "room broadcast failed", map[logging.ExtraKey]any{
				logging.RoomID:       envelope.ChatID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	if envelope.To != "" && c.opts.DirectDelivery {
		c.registry.BroadcastToAll(cl.ID, NewDirectMessage(envelope.To, envelope.ChatID, envelope.Data))
	}
}
