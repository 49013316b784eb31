package model

import (
	"time"

	"saas-starter/internal/domain"

	"github.com/google/uuid"
)

// User is the local mirror of an identity owned by the auth provider.
// Email is the join key used to resolve billing customers onto local users.
type User struct {
	ID        string
	Email     string
	FullName  *string
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(id, email string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
