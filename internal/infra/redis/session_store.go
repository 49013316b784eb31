package redis

import (
	"context"
	"encoding/json"
	"time"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionStore)(nil)

// SessionStore resolves auth-provider session ids to user identity.
// The auth provider writes sessions here on login; we only read and expire.
type SessionStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionStore(client RedisClient, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*repository.Session, error) {
	data, err := s.client.Get(ctx, s.key(sessionID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var sess repository.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		_ = s.client.Del(ctx, s.key(sessionID))
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Set(ctx context.Context, sess *repository.Session) error {
	if sess == nil || sess.ID == "" {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if !sess.ExpiresAt.IsZero() {
		if until := time.Until(sess.ExpiresAt); until > 0 && until < ttl {
			ttl = until
		}
	}
	return s.client.Set(ctx, s.key(sess.ID), data, ttl)
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID))
}
