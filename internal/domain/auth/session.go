// Package auth models the bearer sessions handed out on register and login.
// A token stays valid until it expires or is used to log out.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"airbrb/internal/domain/user"
)

// DefaultTTL applies when a session is issued without a lifetime.
const DefaultTTL = 24 * time.Hour

var (
	ErrTokenRequired   = errors.New("auth: token is required")
	ErrOwnerRequired   = errors.New("auth: session owner is required")
	ErrSessionNotFound = errors.New("auth: session not found")
)

type Token string

// ParseToken accepts a raw token as sent by a client.
func ParseToken(raw string) (Token, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", ErrTokenRequired
	}
	return Token(token), nil
}

type Session struct {
	Token     Token
	UserID    user.ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue opens a session for owner at now. A non-positive ttl uses DefaultTTL.
func Issue(token Token, owner user.ID, now time.Time, ttl time.Duration) (*Session, error) {
	token, err := ParseToken(string(token))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	issued := now.UTC()
	return &Session{Token: token, UserID: owner, IssuedAt: issued, ExpiresAt: issued.Add(ttl)}, nil
}

// ValidAt reports whether the token is still accepted at the given instant.
// The expiry instant itself is already too late.
func (s *Session) ValidAt(at time.Time) bool {
	return at.UTC().Before(s.ExpiresAt)
}

// SessionStore persists sessions by token. Get reports ErrSessionNotFound
// for tokens that are unknown or past their expiry.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
}
