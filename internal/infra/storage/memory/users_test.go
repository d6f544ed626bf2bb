package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "airbrb/internal/domain/auth"
	domainuser "airbrb/internal/domain/user"
)

func TestUserRepositoryEmailIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	alice := &domainuser.User{ID: "u1", Email: "Alice@Example.com", Name: "Alice", PasswordHash: "x"}
	require.NoError(t, repo.Save(ctx, alice))

	got, err := repo.ByEmail(ctx, " alice@example.com ")
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("u1"), got.ID)
	assert.Equal(t, "alice@example.com", got.Email)

	got.Name = "Mutated"
	again, err := repo.ByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name, "callers get copies")

	clash := &domainuser.User{ID: "u2", Email: "alice@example.com", Name: "Other", PasswordHash: "x"}
	assert.ErrorIs(t, repo.Save(ctx, clash), domainuser.ErrEmailAlreadyUsed)

	alice.Email = "alice@new.example.com"
	require.NoError(t, repo.Save(ctx, alice))
	_, err = repo.ByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
	require.NoError(t, repo.Save(ctx, clash), "the old address is free again")

	_, err = repo.ByEmail(ctx, "not an email")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
	assert.ErrorIs(t, repo.Save(ctx, &domainuser.User{Email: "x@y.co"}), domainuser.ErrIDRequired)
}

func TestSessionStoreDropsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	live, err := domainauth.Issue("live", "u1", now, time.Hour)
	require.NoError(t, err)
	stale, err := domainauth.Issue("stale", "u1", now.Add(-time.Hour), time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, stale))
	assert.ErrorIs(t, store.Save(ctx, &domainauth.Session{}), domainauth.ErrTokenRequired)

	_, err = store.Get(ctx, "live")
	require.NoError(t, err)
	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Equal(t, 1, store.size(), "expired sessions are pruned on read")

	require.NoError(t, store.Delete(ctx, "live"))
	_, err = store.Get(ctx, "live")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	require.NoError(t, store.Delete(ctx, "live"))
}
