package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/phrazzld/taskman-api/internal/store"
)

// PasswordHashVerifier hashes new passwords and checks presented ones.
type PasswordHashVerifier interface {
	auth.PasswordHasher
	auth.PasswordVerifier
}

// UserService provides registration and session operations.
type UserService interface {
	// Register creates an account. The password is hashed exactly once here.
	// Returns store.ErrEmailExists if the email is taken.
	Register(ctx context.Context, email, username, password string) (*domain.User, error)

	// Login checks credentials and issues an access token. Unknown emails and
	// wrong passwords both return auth.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (string, error)

	// Logout revokes token until it would have expired.
	Logout(ctx context.Context, token string) error
}

type userServiceImpl struct {
	users         store.UserStore
	revocations   store.RevocationStore
	tokens        auth.JWTService
	passwords     PasswordHashVerifier
	tokenLifetime time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// UserServiceDeps are the collaborators of a UserService.
type UserServiceDeps struct {
	Users       store.UserStore
	Revocations store.RevocationStore
	Tokens      auth.JWTService
	Passwords   PasswordHashVerifier
	// TokenLifetime bounds the revocation of tokens that carry no expiry.
	TokenLifetime time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(deps UserServiceDeps, logger *slog.Logger) (UserService, error) {
	switch {
	case deps.Users == nil:
		return nil, fmt.Errorf("%w: users", ErrNilDependency)
	case deps.Revocations == nil:
		return nil, fmt.Errorf("%w: revocations", ErrNilDependency)
	case deps.Tokens == nil:
		return nil, fmt.Errorf("%w: tokens", ErrNilDependency)
	case deps.Passwords == nil:
		return nil, fmt.Errorf("%w: passwords", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &userServiceImpl{
		users:         deps.Users,
		revocations:   deps.Revocations,
		tokens:        deps.Tokens,
		passwords:     deps.Passwords,
		tokenLifetime: deps.TokenLifetime,
		now:           now,
		logger:        logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register.
func (s *userServiceImpl) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(email, username, password)
	if err != nil {
		return nil, userValidationError(err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, NewUserServiceError("register", "failed to hash password", err)
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register existing email")
			return nil, err
		}
		log.Error("failed to save user", slog.String("error", err.Error()))
		return nil, NewUserServiceError("register", "failed to save user", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login implements UserService.Login.
func (s *userServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", auth.ErrInvalidCredentials
		}
		log.Error("failed to look up user", slog.String("error", err.Error()))
		return "", NewUserServiceError("login", "failed to look up user", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Debug("password mismatch", slog.String("user_id", user.ID.String()))
			return "", auth.ErrInvalidCredentials
		}
		return "", NewUserServiceError("login", "failed to verify password", err)
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		log.Error("failed to generate token", slog.String("error", err.Error()))
		return "", NewUserServiceError("login", "failed to generate token", err)
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return token, nil
}

// Logout implements UserService.Logout. A token without an exp claim is
// revoked for one full token lifetime from now.
func (s *userServiceImpl) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return auth.ErrMissingToken
	}

	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.tokenLifetime)
	}

	if err := s.revocations.Revoke(ctx, token, expiresAt); err != nil {
		return NewUserServiceError("logout", "failed to revoke token", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("user logged out",
		slog.String("user_id", claims.UserID.String()))
	return nil
}

// userValidationError turns a domain user error into a field-level
// validation error.
func userValidationError(err error) error {
	var field string
	switch {
	case errors.Is(err, domain.ErrEmptyEmail), errors.Is(err, domain.ErrInvalidEmail):
		field = "email"
	case errors.Is(err, domain.ErrInvalidUsername):
		field = "username"
	case errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrPasswordTooWeak):
		field = "password"
	default:
		return err
	}
	return domain.NewValidationError(field, err.Error(), err)
}
