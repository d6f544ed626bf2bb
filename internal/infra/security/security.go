// Package security implements the credential primitives of the auth service.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("security: password does not match")
	ErrPasswordTooLong  = errors.New("security: password exceeds 72 bytes")
)

const (
	defaultTokenBytes = 32
	minTokenBytes     = 16
)

// BcryptHasher hashes passwords with bcrypt at Cost, or bcrypt.DefaultCost
// when Cost is below bcrypt.MinCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(out), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost && h.Cost <= bcrypt.MaxCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}

// TokenGenerator issues opaque URL-safe session tokens.
type TokenGenerator struct {
	Bytes int
}

func (g TokenGenerator) NewToken() (string, error) {
	size := g.Bytes
	switch {
	case size <= 0:
		size = defaultTokenBytes
	case size < minTokenBytes:
		size = minTokenBytes
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: entropy read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
