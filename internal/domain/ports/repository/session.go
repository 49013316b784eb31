package repository

import (
	"context"
	"time"
)

// Session is the auth provider's server-side session record as we mirror it
// in the session store. The auth provider owns creation and expiry; we only
// resolve tokens to user ids.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
}
