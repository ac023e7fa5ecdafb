package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/persistence/db"
)

type savedPostRepository struct {
	db *mongo.Database
}

func NewSavedPostRepository(database *mongo.Database) domain.SavedPostRepository {
	return &savedPostRepository{
		db: database,
	}
}

func (r *savedPostRepository) collection() *mongo.Collection {
	return r.db.Collection(db.SavedPostsCollection)
}

func (r *savedPostRepository) Save(ctx context.Context, userID, postID string) error {
	saved := domain.SavedPost{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.collection().InsertOne(ctx, saved)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *savedPostRepository) Unsave(ctx context.Context, userID, postID string) error {
	res, err := r.collection().DeleteOne(ctx, bson.M{
		"user_id": userID,
		"post_id": postID,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *savedPostRepository) IsSaved(ctx context.Context, userID, postID string) (bool, error) {
	err := r.collection().FindOne(ctx, bson.M{
		"user_id": userID,
		"post_id": postID,
	}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *savedPostRepository) ListByUser(ctx context.Context, userID string) ([]domain.SavedPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var saved []domain.SavedPost
	if err := cursor.All(ctx, &saved); err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *savedPostRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "post_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection().Indexes().CreateMany(ctx, indexes)
	return err
}
