// Package auth provides bearer-token session management and credential
// verification for the single-operator dashboard.
//
// Tokens are opaque random strings held in process memory: a restart
// invalidates every session. That trade-off is deliberate for a
// single-operator tool; the TokenStore interface keeps the route layer
// decoupled so a persistent backend can be swapped in later.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// tokenBytes is the entropy of an issued token (hex-encoded to 64 chars).
const tokenBytes = 32

// sweepInterval bounds how often expired tokens are swept during Validate.
const sweepInterval = 5 * time.Minute

// TokenStore issues and validates opaque bearer tokens.
type TokenStore interface {
	// Issue creates a new token and records it as valid.
	Issue() (string, error)

	// Validate reports whether the token is known and unexpired.
	Validate(token string) bool

	// Revoke forgets a token. Revoking an unknown token is a no-op.
	Revoke(token string)
}

// MemoryTokenStore is an in-memory TokenStore. Safe for concurrent use.
type MemoryTokenStore struct {
	mu        sync.Mutex
	tokens    map[string]time.Time // token -> issue time
	ttl       time.Duration        // 0 = tokens never expire
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryTokenStore creates a store. ttl of zero disables expiry.
func NewMemoryTokenStore(ttl time.Duration) *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens:    make(map[string]time.Time),
		ttl:       ttl,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Issue creates a cryptographically random token.
func (s *MemoryTokenStore) Issue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = s.now()

	return token, nil
}

// Validate reports whether the token is known and unexpired. Expired
// entries are dropped lazily; a periodic sweep bounds map growth.
func (s *MemoryTokenStore) Validate(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.ttl > 0 && now.Sub(s.lastSweep) > sweepInterval {
		for t, issued := range s.tokens {
			if now.Sub(issued) > s.ttl {
				delete(s.tokens, t)
			}
		}
		s.lastSweep = now
	}

	issued, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.ttl > 0 && now.Sub(issued) > s.ttl {
		delete(s.tokens, token)
		return false
	}

	return true
}

// Revoke forgets a token.
func (s *MemoryTokenStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Len returns the number of live tokens. Intended for stats and tests.
func (s *MemoryTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
