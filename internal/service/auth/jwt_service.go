package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and verifies signed, time-limited access tokens.
// Implementations hold no mutable state.
type JWTService interface {
	// GenerateToken creates a signed access token for userID.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken verifies the signature and time claims of tokenString and
	// returns its claims. It fails with ErrInvalidToken or ErrExpiredToken.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the verified contents of an access token.
type Claims struct {
	UserID   uuid.UUID
	Subject  string
	IssuedAt time.Time
	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
	ID        string
}
