package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
)

// SQLRevocationStore keeps revoked tokens in the revoked_tokens table.
type SQLRevocationStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewSQLRevocationStore creates a revocation store on db.
func NewSQLRevocationStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLRevocationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLRevocationStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "revocation_store")),
	}
}

var _ store.RevocationStore = (*SQLRevocationStore)(nil)

// Revoke implements store.RevocationStore.Revoke. Revoking a token twice
// keeps the later of the two expiries.
func (s *SQLRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	q := s.dialect.Rebind(`
		INSERT INTO revoked_tokens (token, expires_at) VALUES (?, ?)
		ON CONFLICT (token) DO UPDATE SET expires_at = CASE
			WHEN excluded.expires_at > revoked_tokens.expires_at THEN excluded.expires_at
			ELSE revoked_tokens.expires_at
		END`)
	if _, err := s.db.ExecContext(ctx, q, token, s.dialect.timeArg(expiresAt)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to revoke token",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to revoke token: %w", MapError(err))
	}
	return nil
}

// IsRevoked implements store.RevocationStore.IsRevoked.
func (s *SQLRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	var n int
	q := s.dialect.Rebind(`SELECT COUNT(*) FROM revoked_tokens WHERE token = ?`)
	if err := s.db.QueryRowContext(ctx, q, token).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to check token revocation",
			slog.String("error", err.Error()))
		return false, fmt.Errorf("failed to check token revocation: %w", MapError(err))
	}
	return n > 0, nil
}

// PurgeExpired implements store.RevocationStore.PurgeExpired.
func (s *SQLRevocationStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	q := s.dialect.Rebind(`DELETE FROM revoked_tokens WHERE expires_at <= ?`)
	result, err := s.db.ExecContext(ctx, q, s.dialect.timeArg(now))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to purge revoked tokens",
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged tokens: %w", err)
	}
	return n, nil
}
