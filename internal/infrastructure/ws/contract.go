package ws

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrUnknownEvent  = errors.New("unknown event")
	ErrMissingChatID = errors.New("chatId is required")
	ErrMissingTarget = errors.New("send_message requires chatId or to")
	ErrEmptyData     = errors.New("data is required")
)

// Envelope is the single frame shape exchanged over the relay. Inbound
// frames are validated against their event kind before dispatch; malformed
// frames are answered with an error envelope rather than silently dropped.
type Envelope struct {
	Event  string          `json:"event"`
	ChatID string          `json:"chatId,omitempty"`
	To     string          `json:"to,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func (e *Envelope) Validate() error {
	switch e.Event {
	case EventJoinRoom, EventLeaveRoom:
		if strings.TrimSpace(e.ChatID) == "" {
			return ErrMissingChatID
		}
	case EventSendMessage:
		if strings.TrimSpace(e.ChatID) == "" && strings.TrimSpace(e.To) == "" {
			return ErrMissingTarget
		}
		if len(e.Data) == 0 {
			return ErrEmptyData
		}
	default:
		return ErrUnknownEvent
	}
	return nil
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type JoinedPayload struct {
	ChatID string `json:"chatId"`
}

func NewReceiveMessage(chatID, from string, data json.RawMessage) *Envelope {
	return &Envelope{
		Event:  EventReceiveMessage,
		ChatID: chatID,
		To:     from,
		Data:   data,
	}
}

// NewDirectMessage produces the inbox-channel delivery: the event is named
// by the sender-chosen "to" value.
func NewDirectMessage(to, chatID string, data json.RawMessage) *Envelope {
	return &Envelope{
		Event:  to,
		ChatID: chatID,
		Data:   data,
	}
}

func NewJoined(chatID string) *Envelope {
	return mustEnvelope(EventJoined, chatID, JoinedPayload{ChatID: chatID})
}

func NewLeft(chatID string) *Envelope {
	return mustEnvelope(EventLeft, chatID, JoinedPayload{ChatID: chatID})
}

func NewInvalid(message string) *Envelope {
	return mustEnvelope(ErrorInvalid, "", ErrorPayload{
		Code:    "INVALID_FRAME",
		Message: message,
	})
}

func NewUnauthorized(chatID, message string) *Envelope {
	return mustEnvelope(ErrorUnauthorized, chatID, ErrorPayload{
		Code:    "UNAUTHORIZED",
		Message: message,
	})
}

func mustEnvelope(event, chatID string, payload any) *Envelope {
	data, _ := json.Marshal(payload)
	return &Envelope{
		Event:  event,
		ChatID: chatID,
		Data:   data,
	}
}
