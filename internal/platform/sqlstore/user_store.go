package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
)

const userColumns = `id, email, username, hashed_password, created_at, updated_at`

// SQLUserStore implements the store.UserStore interface on database/sql.
type SQLUserStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	now     func() time.Time
}

// NewSQLUserStore creates a user store on db. If logger is nil, the default
// logger is used.
func NewSQLUserStore(db *sql.DB, dialect Dialect, logger *slog.Logger, opts ...Option) *SQLUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := buildOptions(opts)
	return &SQLUserStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "user_store")),
		now:     o.now,
	}
}

var _ store.UserStore = (*SQLUserStore)(nil)

// Create implements store.UserStore.Create. The plaintext password is never
// persisted; HashedPassword must already be set.
func (s *SQLUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user.Email = domain.NormalizeEmail(user.Email)
	if user.HashedPassword == "" {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	q := s.dialect.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		user.ID.String(),
		user.Email,
		user.Username,
		user.HashedPassword,
		s.dialect.timeArg(now),
		s.dialect.timeArg(now),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already registered")
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create user: %w", MapError(err))
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	user.Password = ""
	log.Debug("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *SQLUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	q := s.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return s.getOne(ctx, q, id.String())
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *SQLUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := s.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return s.getOne(ctx, q, domain.NormalizeEmail(email))
}

func (s *SQLUserStore) getOne(ctx context.Context, q string, arg any) (*domain.User, error) {
	var (
		user      domain.User
		id        string
		createdAt dbTime
		updatedAt dbTime
	)
	err := s.db.QueryRowContext(ctx, q, arg).Scan(
		&id,
		&user.Email,
		&user.Username,
		&user.HashedPassword,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get user: %w", MapError(err))
	}

	user.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	user.CreatedAt = createdAt.Time
	user.UpdatedAt = updatedAt.Time
	return &user, nil
}
