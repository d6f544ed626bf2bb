// Package auth signs users up and in. Every account can both host and
// book, so a session only needs to identify the user.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	domainauth "airbrb/internal/domain/auth"
	domainuser "airbrb/internal/domain/user"
)

// MinPasswordLength counts runes, not bytes.
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
	ErrNotConfigured      = errors.New("auth: service is missing a dependency")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service issues a fresh session on every register and login. A zero
// SessionTTL uses domainauth.DefaultTTL.
type Service struct {
	Users      domainuser.Repository
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

type Credentials struct {
	Email    string
	Password string
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

// SignIn is what register and login hand back to the client.
type SignIn struct {
	User  *domainuser.User
	Token string
}

// Identity is the signed in user behind a bearer token.
type Identity struct {
	User    *domainuser.User
	Session *domainauth.Session
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*SignIn, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	email, err := domainuser.NormalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, domainuser.ErrNameRequired
	}
	if utf8.RuneCountInString(params.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	switch _, err := s.Users.ByEmail(ctx, email); {
	case err == nil:
		return nil, domainuser.ErrEmailAlreadyUsed
	case !errors.Is(err, domainuser.ErrNotFound):
		return nil, err
	}

	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	account, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		Name:         params.Name,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, account); err != nil {
		return nil, err
	}
	return s.signIn(ctx, account, "user registered")
}

// Login never says whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, creds Credentials) (*SignIn, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	email, err := domainuser.NormalizeEmail(creds.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	account, err := s.Users.ByEmail(ctx, email)
	switch {
	case errors.Is(err, domainuser.ErrNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if err := s.Passwords.Compare(account.PasswordHash, creds.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(ctx, account, "user logged in")
}

// Logout ends the session behind token. Other sessions of the same user
// stay valid. An unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ready(); err != nil {
		return err
	}
	parsed, err := domainauth.ParseToken(token)
	if err != nil {
		return nil
	}
	if err := s.Sessions.Delete(ctx, parsed); err != nil {
		return err
	}
	s.log().DebugContext(ctx, "session ended")
	return nil
}

// ResolveToken checks expiry against the service clock as well as the
// store's, and drops sessions whose user no longer exists.
func (s *Service) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	parsed, err := domainauth.ParseToken(token)
	if err != nil {
		return nil, err
	}
	session, err := s.Sessions.Get(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if !session.ValidAt(s.now()) {
		_ = s.Sessions.Delete(ctx, parsed)
		return nil, domainauth.ErrSessionNotFound
	}
	account, err := s.Users.ByID(ctx, session.UserID)
	if errors.Is(err, domainuser.ErrNotFound) {
		_ = s.Sessions.Delete(ctx, parsed)
		return nil, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Identity{User: account, Session: session}, nil
}

func (s *Service) signIn(ctx context.Context, account *domainuser.User, event string) (*SignIn, error) {
	raw, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	session, err := domainauth.Issue(domainauth.Token(raw), account.ID, s.now(), s.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.log().InfoContext(ctx, event, "user_id", account.ID, "expires_at", session.ExpiresAt)
	return &SignIn{User: account, Token: string(session.Token)}, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Service) ready() error {
	if s.Users == nil || s.Sessions == nil || s.Passwords == nil || s.Tokens == nil {
		return ErrNotConfigured
	}
	return nil
}
