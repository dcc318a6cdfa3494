package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/taskman-api/internal/store"
)

// Revocation is one recorded call to MockRevocationStore.Revoke.
type Revocation struct {
	Token     string
	ExpiresAt time.Time
}

// MockRevocationStore implements store.RevocationStore for testing
type MockRevocationStore struct {
	RevokeFn       func(ctx context.Context, token string, expiresAt time.Time) error
	IsRevokedFn    func(ctx context.Context, token string) (bool, error)
	PurgeExpiredFn func(ctx context.Context, now time.Time) (int64, error)

	// Revoked is the default answer of IsRevoked.
	Revoked bool
	Err     error

	RevokeCalls    CallLog[Revocation]
	IsRevokedCalls CallLog[string]
}

var _ store.RevocationStore = (*MockRevocationStore)(nil)

// Revoke implements store.RevocationStore
func (m *MockRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	m.RevokeCalls.record(Revocation{Token: token, ExpiresAt: expiresAt})
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, token, expiresAt)
	}
	return m.Err
}

// IsRevoked implements store.RevocationStore
func (m *MockRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	m.IsRevokedCalls.record(token)
	if m.IsRevokedFn != nil {
		return m.IsRevokedFn(ctx, token)
	}
	return m.Revoked, m.Err
}

// PurgeExpired implements store.RevocationStore
func (m *MockRevocationStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.PurgeExpiredFn != nil {
		return m.PurgeExpiredFn(ctx, now)
	}
	return 0, m.Err
}
