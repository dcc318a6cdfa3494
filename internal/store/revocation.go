package store

import (
	"context"
	"time"
)

// RevocationStore persists credentials that were invalidated before expiry.
type RevocationStore interface {
	// Revoke records token as revoked until expiresAt. Revoking an already
	// revoked token is not an error.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error

	// IsRevoked reports whether token has been revoked and not yet purged.
	IsRevoked(ctx context.Context, token string) (bool, error)

	// PurgeExpired deletes every entry whose expiry is at or before now and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
