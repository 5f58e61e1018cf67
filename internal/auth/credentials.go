package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPasswordHash = errors.New("invalid admin password hash")

// Credentials holds the single administrator account. It is immutable after
// construction.
type Credentials struct {
	username     string
	passwordHash []byte
}

func NewCredentials(username, passwordHash string) (*Credentials, error) {
	username = strings.TrimSpace(username)
	passwordHash = strings.TrimSpace(passwordHash)
	if username == "" {
		return nil, errors.New("admin username is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}

	return &Credentials{
		username:     username,
		passwordHash: []byte(passwordHash),
	}, nil
}

func HashPassword(plainPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (c *Credentials) Username() string {
	return c.username
}

// Verify reports whether both username and password match. The bcrypt
// comparison runs even on a username mismatch.
func (c *Credentials) Verify(username, password string) bool {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return usernameOK && passwordOK
}
