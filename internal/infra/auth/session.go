package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/ports/repository"
)

// SessionVerifier authenticates requests carrying a session token issued by
// the auth provider. Token cryptography is the provider's concern; we verify
// the HMAC signature and resolve the session id against the shared session
// store so revoked sessions fail even with a valid token.
type SessionVerifier struct {
	secret   []byte
	sessions repository.SessionRepository
}

func NewSessionVerifier(secret string, sessions repository.SessionRepository) (*SessionVerifier, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required")
	}
	return &SessionVerifier{secret: []byte(secret), sessions: sessions}, nil
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Verify parses the token and resolves it to a live session.
// All failure modes collapse to domain.ErrUnauthorized; callers must not be
// able to distinguish bad token from expired session.
func (v *SessionVerifier) Verify(ctx context.Context, token string) (*repository.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}

	sid := claims.SessionID
	if sid == "" {
		// Some auth provider versions put the session id in the jti claim.
		sid = claims.ID
	}
	if sid == "" {
		return nil, domain.ErrUnauthorized
	}

	sess, err := v.sessions.Get(ctx, sid)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return sess, nil
}
