// Package session holds the ephemeral login tokens. Membership in the set
// is validity; tokens never expire and the whole set clears on process
// restart.
package session

import (
	"sync"

	"github.com/google/uuid"
)

type Store struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewStore() *Store {
	return &Store{tokens: make(map[string]struct{})}
}

// Issue mints a fresh opaque token and registers it.
func (s *Store) Issue() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	return token
}

// Valid reports whether the token is a current member of the set.
func (s *Store) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	_, ok := s.tokens[token]
	s.mu.Unlock()
	return ok
}

// Revoke removes a token on explicit logout. Revoking an unknown token is a
// no-op.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}
