package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homelyhq/homely/internal/infrastructure/validate"
)

type PostType string

const (
	PostTypeBuy  PostType = "buy"
	PostTypeRent PostType = "rent"
)

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyLand      PropertyType = "land"
)

type PostDetail struct {
	Description string `bson:"description" json:"description"`
	Utilities   string `bson:"utilities,omitempty" json:"utilities,omitempty"`
	PetPolicy   string `bson:"pet_policy,omitempty" json:"petPolicy,omitempty"`
	Income      string `bson:"income,omitempty" json:"income,omitempty"`
	Size        int    `bson:"size,omitempty" json:"size,omitempty"`
	School      int    `bson:"school,omitempty" json:"school,omitempty"`
	Bus         int    `bson:"bus,omitempty" json:"bus,omitempty"`
	Restaurant  int    `bson:"restaurant,omitempty" json:"restaurant,omitempty"`
}

type Post struct {
	ID        string       `bson:"_id" json:"id"`
	Title     string       `bson:"title" json:"title"`
	Price     int64        `bson:"price" json:"price"`
	Images    []string     `bson:"images,omitempty" json:"images,omitempty"`
	Address   string       `bson:"address" json:"address"`
	City      string       `bson:"city" json:"city"`
	Bedroom   int          `bson:"bedroom" json:"bedroom"`
	Bathroom  int          `bson:"bathroom" json:"bathroom"`
	Latitude  string       `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude string       `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Type      PostType     `bson:"type" json:"type"`
	Property  PropertyType `bson:"property" json:"property"`
	UserID    string       `bson:"user_id" json:"userId"`
	Detail    PostDetail   `bson:"detail" json:"detail"`
	CreatedAt time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `bson:"updated_at" json:"updatedAt"`
}

// PostFilter narrows a post listing query. Zero values mean "no constraint".
type PostFilter struct {
	City     string
	Type     PostType
	Property PropertyType
	Bedroom  int
	MinPrice int64
	MaxPrice int64
	Limit    int
	Offset   int
}

type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	Query(ctx context.Context, filter PostFilter) ([]Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type SavedPost struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	PostID    string    `bson:"post_id" json:"postId"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type SavedPostRepository interface {
	Save(ctx context.Context, userID, postID string) error
	Unsave(ctx context.Context, userID, postID string) error
	IsSaved(ctx context.Context, userID, postID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]SavedPost, error)
	EnsureIndexes(ctx context.Context) error
}

func (t PostType) Valid() bool {
	return t == PostTypeBuy || t == PostTypeRent
}

func (p PropertyType) Valid() bool {
	switch p {
	case PropertyApartment, PropertyHouse, PropertyCondo, PropertyLand:
		return true
	}
	return false
}

func NewPost(userID, title, address, city string, price int64, postType PostType, property PropertyType) (*Post, error) {
	validateTitle := validate.Field("title", validate.Compose(
		validate.Required(),
		validate.MaxLength(140),
	))

	if userID == "" {
		return nil, ErrInvalidInput
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validate.Field("address", validate.Required())(address); err != nil {
		return nil, err
	}
	if err := validate.Field("city", validate.Required())(city); err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, ErrInvalidInput
	}
	if !postType.Valid() || !property.Valid() {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()

	return &Post{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Price:     price,
		Address:   strings.TrimSpace(address),
		City:      strings.ToLower(strings.TrimSpace(city)),
		Type:      postType,
		Property:  property,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
