package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/phrazzld/taskman-api/internal/store"
)

// DefaultTokenHeader carries the credential when no header is configured.
const DefaultTokenHeader = "X-User-Token"

// Messages returned by Authenticate, one per rejection reason.
const (
	MsgNoToken          = "Access denied. No token provided."
	MsgTokenInvalidated = "Token has been Invalidated"
	MsgInvalidToken     = "Invalid token"
	MsgInvalidUserToken = "Invalid User token"
)

// AuthMiddleware authenticates requests carrying a bearer token.
type AuthMiddleware struct {
	tokens      auth.JWTService
	revocations store.RevocationStore
	users       store.UserStore
	header      string
	logger      *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. An empty header selects
// DefaultTokenHeader.
func NewAuthMiddleware(
	tokens auth.JWTService,
	revocations store.RevocationStore,
	users store.UserStore,
	header string,
	log *slog.Logger,
) *AuthMiddleware {
	if header == "" {
		header = DefaultTokenHeader
	}
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{
		tokens:      tokens,
		revocations: revocations,
		users:       users,
		header:      header,
		logger:      log.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate checks, in order, that a token is present, that it has not
// been revoked, that it verifies, and that its user still exists. The user
// and the token are then attached to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContextOrDefault(ctx, m.logger)

		raw := strings.TrimSpace(r.Header.Get(m.header))
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, MsgNoToken)
			return
		}
		token := BearerToken(raw)

		revoked, err := m.revocations.IsRevoked(ctx, token)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Internal Server Error", err)
			return
		}
		if revoked {
			shared.RespondWithError(w, r, http.StatusUnauthorized, MsgTokenInvalidated)
			return
		}

		claims, err := m.tokens.ValidateToken(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) ||
				errors.Is(err, auth.ErrExpiredToken) ||
				errors.Is(err, auth.ErrTokenNotYetValid) {
				log.Debug("token rejected", slog.String("reason", err.Error()))
				shared.RespondWithError(w, r, http.StatusUnauthorized, MsgInvalidToken)
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Internal Server Error", err)
			return
		}

		user, err := m.users.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, MsgInvalidUserToken, err,
					shared.WithElevatedLogLevel())
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Internal Server Error", err)
			return
		}

		ctx = shared.WithUser(ctx, user)
		ctx = shared.WithToken(ctx, token)
		ctx = logger.WithLogger(ctx, log.With(slog.String("user_id", user.ID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken strips an optional "Bearer" scheme from a header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, rest, ok := strings.Cut(header, " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}
