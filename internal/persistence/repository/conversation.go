package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/persistence/db"
)

type conversationRepository struct {
	db *mongo.Database
}

func NewConversationRepository(database *mongo.Database) domain.ConversationRepository {
	return &conversationRepository{
		db: database,
	}
}

func (r *conversationRepository) collection() *mongo.Collection {
	return r.db.Collection(db.ConversationsCollection)
}

func (r *conversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	_, err := r.collection().InsertOne(ctx, conversation)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *conversationRepository) GetByPairKey(ctx context.Context, pairKey string) (*domain.Conversation, error) {
	return r.findOne(ctx, bson.M{"pair_key": pairKey})
}

func (r *conversationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.collection().FindOne(ctx, filter).Decode(&conversation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.collection().Find(ctx, bson.M{"participant_ids": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []domain.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *conversationRepository) MarkSeen(ctx context.Context, id, userID string) error {
	update := bson.M{
		"$addToSet": bson.M{"seen_by": userID},
	}

	res, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetLastMessage records the newest message preview and resets seen_by to
// just the sender.
func (r *conversationRepository) SetLastMessage(ctx context.Context, id, text, senderID string) error {
	update := bson.M{
		"$set": bson.M{
			"last_message": text,
			"seen_by":      []string{senderID},
			"updated_at":   time.Now().UTC(),
		},
	}

	res, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "participant_ids", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection().Indexes().CreateMany(ctx, indexes)
	return err
}
