package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homelyhq/homely/internal/infrastructure/validate"
)

type User struct {
	ID        string    `bson:"_id" json:"id"`
	ClerkID   string    `bson:"clerk_id" json:"clerkId"`
	Email     string    `bson:"email" json:"email"`
	Username  string    `bson:"username" json:"username"`
	Avatar    string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	DeleteByClerkID(ctx context.Context, clerkID string) error
	EnsureIndexes(ctx context.Context) error
}

func NewUser(clerkID, email, rawUsername, avatar string) (*User, error) {
	validateUsername := validate.Compose(
		validate.Required(),
		validate.MinLength(2),
		validate.MaxLength(32),
	)
	validateEmail := validate.Compose(
		validate.Required(),
		validate.Email(),
	)

	if clerkID == "" {
		return nil, ErrInvalidInput
	}
	if err := validate.Field("email", validateEmail)(email); err != nil {
		return nil, err
	}
	if err := validate.Field("username", validateUsername)(rawUsername); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &User{
		ID:        uuid.NewString(),
		ClerkID:   clerkID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Username:  strings.TrimSpace(rawUsername),
		Avatar:    avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
