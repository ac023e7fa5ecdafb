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

type postRepository struct {
	db *mongo.Database
}

func NewPostRepository(database *mongo.Database) domain.PostRepository {
	return &postRepository{
		db: database,
	}
}

func (r *postRepository) collection() *mongo.Collection {
	return r.db.Collection(db.PostsCollection)
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	_, err := r.collection().InsertOne(ctx, post)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Query(ctx context.Context, filter domain.PostFilter) ([]domain.Post, error) {
	query := bson.M{}

	if filter.City != "" {
		query["city"] = filter.City
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Property != "" {
		query["property"] = filter.Property
	}
	if filter.Bedroom > 0 {
		query["bedroom"] = filter.Bedroom
	}

	price := bson.M{}
	if filter.MinPrice > 0 {
		price["$gte"] = filter.MinPrice
	}
	if filter.MaxPrice > 0 {
		price["$lte"] = filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(filter.Offset))

	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []domain.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"title":      post.Title,
		"price":      post.Price,
		"images":     post.Images,
		"address":    post.Address,
		"city":       post.City,
		"bedroom":    post.Bedroom,
		"bathroom":   post.Bathroom,
		"latitude":   post.Latitude,
		"longitude":  post.Longitude,
		"type":       post.Type,
		"property":   post.Property,
		"detail":     post.Detail,
		"updated_at": post.UpdatedAt,
	}}

	res, err := r.collection().UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "city", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "property", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "price", Value: 1}},
		},
	}

	_, err := r.collection().Indexes().CreateMany(ctx, indexes)
	return err
}
