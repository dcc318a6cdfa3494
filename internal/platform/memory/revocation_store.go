package memory

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
)

// RevocationStore is an in-memory store.RevocationStore.
type RevocationStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.RevokedToken
}

// NewRevocationStore returns an empty RevocationStore.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{tokens: make(map[string]domain.RevokedToken)}
}

var _ store.RevocationStore = (*RevocationStore)(nil)

// Revoke implements store.RevocationStore.Revoke, keeping the later expiry
// when a token is revoked twice.
func (s *RevocationStore) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.tokens[token]; !ok || expiresAt.After(cur.ExpiresAt) {
		s.tokens[token] = domain.RevokedToken{Token: token, ExpiresAt: expiresAt}
	}
	return nil
}

// IsRevoked implements store.RevocationStore.IsRevoked.
func (s *RevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tokens[token]
	return ok, nil
}

// PurgeExpired implements store.RevocationStore.PurgeExpired.
func (s *RevocationStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for token, entry := range s.tokens {
		if entry.Expired(now) {
			delete(s.tokens, token)
			n++
		}
	}
	return n, nil
}
