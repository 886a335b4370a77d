package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/portalgate"
)

const (
	// DevUsername and DevPassword are the development login used when no
	// credentials file is configured outside production.
	DevUsername = "testuser"
	DevPassword = "testpass"
)

// User is one entry of the credential table.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Disabled     bool   `yaml:"disabled"`
}

// Static is an immutable username → hash table.
type Static struct {
	hasher *Hasher
	users  map[string]User
	dummy  string
}

// NewStatic validates users and returns a verifier. Every hash must parse and
// usernames must be unique.
func NewStatic(hasher *Hasher, users []User) (*Static, error) {
	if hasher == nil {
		return nil, errors.New("credentials: nil hasher")
	}

	table := make(map[string]User, len(users))
	for i, u := range users {
		u.Username = strings.TrimSpace(u.Username)
		if u.Username == "" {
			return nil, fmt.Errorf("credentials: user %d has empty username", i)
		}
		if _, dup := table[u.Username]; dup {
			return nil, fmt.Errorf("credentials: duplicate username %q", u.Username)
		}
		if _, err := parsePHC(u.PasswordHash); err != nil {
			return nil, fmt.Errorf("credentials: user %q: %w", u.Username, err)
		}
		table[u.Username] = u
	}

	dummy, err := hasher.Hash("portalgate-unknown-user")
	if err != nil {
		return nil, fmt.Errorf("credentials: dummy hash: %w", err)
	}

	return &Static{hasher: hasher, users: table, dummy: dummy}, nil
}

// NewDevStatic returns a table holding only DevUsername/DevPassword, hashed
// now with hasher.
func NewDevStatic(hasher *Hasher) (*Static, error) {
	if hasher == nil {
		return nil, errors.New("credentials: nil hasher")
	}
	hash, err := hasher.Hash(DevPassword)
	if err != nil {
		return nil, err
	}
	return NewStatic(hasher, []User{{Username: DevUsername, PasswordHash: hash}})
}

// Len is the number of configured users.
func (s *Static) Len() int {
	return len(s.users)
}

// Verify implements portalgate.CredentialVerifier. Unknown and disabled
// users still pay for one hash verification.
func (s *Static) Verify(_ context.Context, username, password string) error {
	u, ok := s.users[username]
	if !ok || u.Disabled {
		_, _ = s.hasher.Verify(password, s.dummy)
		return portalgate.ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("credentials: verify %q: %w", username, err)
	}
	if !match {
		return portalgate.ErrInvalidCredentials
	}
	return nil
}
