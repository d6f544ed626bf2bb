package memory

import (
	"context"
	"sync"
	"time"

	domainauth "airbrb/internal/domain/auth"
	domainuser "airbrb/internal/domain/user"
)

// UserRepository keeps accounts keyed by their normalized email, the way
// they are looked up on login. emails maps an ID back to its current key.
type UserRepository struct {
	mu       sync.RWMutex
	accounts map[string]domainuser.User
	emails   map[domainuser.ID]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		accounts: make(map[string]domainuser.User),
		emails:   make(map[domainuser.ID]string),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email, ok := r.emails[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return r.account(email)
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	key, err := domainuser.NormalizeEmail(email)
	if err != nil {
		return nil, domainuser.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.account(key)
}

// Save inserts or replaces an account. Changing the email frees the old
// address; taking one that belongs to another account fails.
func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	if u == nil || u.ID == "" {
		return domainuser.ErrIDRequired
	}
	key, err := domainuser.NormalizeEmail(u.Email)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if holder, taken := r.accounts[key]; taken && holder.ID != u.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	if old, ok := r.emails[u.ID]; ok && old != key {
		delete(r.accounts, old)
	}
	stored := *u
	stored.Email = key
	r.accounts[key] = stored
	r.emails[u.ID] = key
	return nil
}

// account must run with r.mu held.
func (r *UserRepository) account(email string) (*domainuser.User, error) {
	u, ok := r.accounts[email]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return &u, nil
}

// SessionStore keeps sessions by token and prunes expired ones as they are
// read.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[domainauth.Token]domainauth.Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[domainauth.Token]domainauth.Session), now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil || session.Token == "" {
		return domainauth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = *session
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if !session.ValidAt(s.now()) {
		delete(s.sessions, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var (
	_ domainuser.Repository   = (*UserRepository)(nil)
	_ domainauth.SessionStore = (*SessionStore)(nil)
)
