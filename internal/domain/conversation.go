package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID             string    `bson:"_id" json:"id"`
	ParticipantIDs []string  `bson:"participant_ids" json:"participantIds"`
	PairKey        string    `bson:"pair_key" json:"-"`
	SeenBy         []string  `bson:"seen_by" json:"seenBy"`
	LastMessage    string    `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

type ConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) error
	GetByID(ctx context.Context, id string) (*Conversation, error)
	GetByPairKey(ctx context.Context, pairKey string) (*Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]Conversation, error)
	MarkSeen(ctx context.Context, id, userID string) error
	SetLastMessage(ctx context.Context, id, text, senderID string) error
	EnsureIndexes(ctx context.Context) error
}

// PairKeyFor is the canonical identity of a two-party conversation,
// independent of who initiated it.
func PairKeyFor(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

func NewConversation(creatorID, otherID string) (*Conversation, error) {
	if creatorID == "" || otherID == "" || creatorID == otherID {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()

	return &Conversation{
		ID:             uuid.NewString(),
		ParticipantIDs: []string{creatorID, otherID},
		PairKey:        PairKeyFor(creatorID, otherID),
		SeenBy:         []string{creatorID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) OtherParticipant(userID string) string {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return ""
}
