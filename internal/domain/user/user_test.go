package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserNormalizesEmail(t *testing.T) {
	u, err := NewUser(CreateParams{ID: "u-1", Email: " Ada@Example.COM ", Name: " Ada ", PasswordHash: "x", CreatedAt: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "Ada", u.Name)
}

func TestNewUserValidation(t *testing.T) {
	cases := []struct {
		params CreateParams
		want   error
	}{
		{CreateParams{Email: "a@b.c", Name: "n", PasswordHash: "x"}, ErrIDRequired},
		{CreateParams{ID: "u", Name: "n", PasswordHash: "x"}, ErrEmailRequired},
		{CreateParams{ID: "u", Email: "not-an-email", Name: "n", PasswordHash: "x"}, ErrEmailInvalid},
		{CreateParams{ID: "u", Email: "a@b.c", Name: "n"}, ErrPasswordHashMissing},
		{CreateParams{ID: "u", Email: "a@b.c", PasswordHash: "x"}, ErrNameRequired},
	}
	for _, tc := range cases {
		_, err := NewUser(tc.params)
		assert.ErrorIs(t, err, tc.want)
	}
}
