package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 15})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err, "zero lifetime is rejected")

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 15})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	lifetime := 15 * time.Minute
	userID := uuid.New()
	svc := newHMACJWTService(testSecret, lifetime, 0, fixedClock(fixedTime))

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(lifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	other, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "each token carries a unique jti")
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	lifetime := 15 * time.Minute
	userID := uuid.New()
	issuer := newHMACJWTService(testSecret, lifetime, 0, fixedClock(fixedTime))
	token, err := issuer.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *hmacJWTService
		token   string
		wantErr error
	}{
		{
			name:  "valid token",
			svc:   issuer,
			token: token,
		},
		{
			name:    "expired token",
			svc:     newHMACJWTService(testSecret, lifetime, 0, fixedClock(fixedTime.Add(lifetime+time.Second))),
			token:   token,
			wantErr: ErrExpiredToken,
		},
		{
			name:  "expired but within clock skew",
			svc:   newHMACJWTService(testSecret, lifetime, time.Minute, fixedClock(fixedTime.Add(lifetime+30*time.Second))),
			token: token,
		},
		{
			name:    "issued in the future",
			svc:     newHMACJWTService(testSecret, lifetime, 0, fixedClock(fixedTime.Add(-time.Hour))),
			token:   token,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "invalid signature",
			svc:     newHMACJWTService(wrongSecret, lifetime, 0, fixedClock(fixedTime)),
			token:   token,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			svc:     issuer,
			token:   "this.is.not.a.valid.jwt.token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			svc:     issuer,
			token:   "",
			wantErr: ErrInvalidToken,
		},
		{
			name: "unexpected algorithm",
			svc:  issuer,
			token: signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), jwtCustomClaims{
				UserID:           userID,
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour))},
			}),
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing user id",
			svc:  issuer,
			token: signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
			}),
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := tt.svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestValidateTokenWithoutExpiry(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newHMACJWTService(testSecret, 15*time.Minute, 0, fixedClock(fixedTime))
	token := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwtCustomClaims{UserID: userID})

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, claims.ExpiresAt.IsZero(), "absent exp is reported as the zero time")
}
