package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/persistence/db"
)

type notificationRepository struct {
	db *mongo.Database
}

func NewNotificationRepository(database *mongo.Database) domain.NotificationRepository {
	return &notificationRepository{
		db: database,
	}
}

func (r *notificationRepository) collection() *mongo.Collection {
	return r.db.Collection(db.NotificationsCollection)
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	_, err := r.collection().InsertOne(ctx, notification)
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []domain.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	return r.collection().CountDocuments(ctx, bson.M{
		"user_id": userID,
		"read":    false,
	})
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.collection().UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection().DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

func (r *notificationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "read", Value: 1},
			},
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7776000), // 90 days TTL
		},
	}

	_, err := r.collection().Indexes().CreateMany(ctx, indexes)
	return err
}
