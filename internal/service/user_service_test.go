package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/mocks"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPassword = "Str0ng!Pass"

type userFixture struct {
	users       *mocks.MockUserStore
	revocations *mocks.MockRevocationStore
	tokens      *mocks.MockJWTService
	passwords   *mocks.MockPasswords
	now         time.Time
	svc         service.UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	f := &userFixture{
		users:       mocks.NewMockUserStore(),
		revocations: &mocks.MockRevocationStore{},
		tokens:      &mocks.MockJWTService{Token: "signed.jwt.token"},
		passwords:   &mocks.MockPasswords{},
		now:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := service.NewUserService(service.UserServiceDeps{
		Users:         f.users,
		Revocations:   f.revocations,
		Tokens:        f.tokens,
		Passwords:     f.passwords,
		TokenLifetime: 15 * time.Minute,
		Now:           func() time.Time { return f.now },
	}, discardLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewUserService_NilDependencies(t *testing.T) {
	t.Parallel()

	full := service.UserServiceDeps{
		Users:       mocks.NewMockUserStore(),
		Revocations: &mocks.MockRevocationStore{},
		Tokens:      &mocks.MockJWTService{},
		Passwords:   &mocks.MockPasswords{},
	}

	tests := []struct {
		name  string
		strip func(d *service.UserServiceDeps)
	}{
		{name: "users", strip: func(d *service.UserServiceDeps) { d.Users = nil }},
		{name: "revocations", strip: func(d *service.UserServiceDeps) { d.Revocations = nil }},
		{name: "tokens", strip: func(d *service.UserServiceDeps) { d.Tokens = nil }},
		{name: "passwords", strip: func(d *service.UserServiceDeps) { d.Passwords = nil }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			deps := full
			tt.strip(&deps)
			svc, err := service.NewUserService(deps, nil)
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, service.ErrNilDependency)
			assert.Contains(t, err.Error(), tt.name)
		})
	}

	svc, err := service.NewUserService(full, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("success hashes once and normalizes email", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)

		user, err := f.svc.Register(context.Background(), "  Alice@Example.COM ", "alice", validPassword)
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "hashed:"+validPassword, user.HashedPassword)
		assert.Empty(t, user.Password)
		assert.Equal(t, 1, f.passwords.HashCalls.Count())
		require.Equal(t, 1, f.users.CreateCalls.Count())
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)

		_, err := f.svc.Register(context.Background(), "bob@example.com", "bob", validPassword)
		require.NoError(t, err)
		_, err = f.svc.Register(context.Background(), "BOB@example.com", "bobby", validPassword)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("validation errors name the field", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			email    string
			username string
			password string
			field    string
		}{
			{name: "bad email", email: "not-an-email", username: "carol", password: validPassword, field: "email"},
			{name: "empty email", email: "", username: "carol", password: validPassword, field: "email"},
			{name: "short username", email: "c@example.com", username: "cc", password: validPassword, field: "username"},
			{name: "weak password", email: "c@example.com", username: "carol", password: "password1", field: "password"},
			{name: "short password", email: "c@example.com", username: "carol", password: "Ab1!", field: "password"},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				f := newUserFixture(t)

				_, err := f.svc.Register(context.Background(), tt.email, tt.username, tt.password)
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				require.Len(t, verr.Fields, 1)
				assert.Equal(t, tt.field, verr.Fields[0].Field)
				assert.Zero(t, f.passwords.HashCalls.Count())
				assert.Zero(t, f.users.CreateCalls.Count())
			})
		}
	})

	t.Run("hash failure", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)
		f.passwords.HashFn = func(string) (string, error) { return "", errors.New("cost too high") }

		_, err := f.svc.Register(context.Background(), "d@example.com", "dave", validPassword)
		var svcErr *service.UserServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "register", svcErr.Operation)
		assert.Zero(t, f.users.CreateCalls.Count())
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)
		f.users.CreateFn = func(context.Context, *domain.User) error { return errors.New("connection reset") }

		_, err := f.svc.Register(context.Background(), "e@example.com", "erin", validPassword)
		var svcErr *service.UserServiceError
		assert.ErrorAs(t, err, &svcErr)
	})
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	existing := &domain.User{
		ID:             uuid.New(),
		Email:          "frank@example.com",
		Username:       "frank",
		HashedPassword: "hashed:" + validPassword,
	}

	tests := []struct {
		name      string
		email     string
		password  string
		setup     func(f *userFixture)
		wantToken string
		wantErr   error
		wantSvc   bool
	}{
		{
			name:      "success",
			email:     "Frank@Example.com",
			password:  validPassword,
			wantToken: "signed.jwt.token",
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: validPassword,
			wantErr:  auth.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "frank@example.com",
			password: "Wr0ng!Pass",
			wantErr:  auth.ErrInvalidCredentials,
		},
		{
			name:     "store failure",
			email:    "frank@example.com",
			password: validPassword,
			setup: func(f *userFixture) {
				f.users.GetByEmailFn = func(context.Context, string) (*domain.User, error) {
					return nil, errors.New("timeout")
				}
			},
			wantSvc: true,
		},
		{
			name:     "token failure",
			email:    "frank@example.com",
			password: validPassword,
			setup: func(f *userFixture) {
				f.tokens.Err = errors.New("signing failed")
			},
			wantSvc: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newUserFixture(t)
			f.users.Users[existing.Email] = existing
			if tt.setup != nil {
				tt.setup(f)
			}

			token, err := f.svc.Login(context.Background(), tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				assert.Zero(t, f.tokens.GenerateCalls.Count())
			case tt.wantSvc:
				var svcErr *service.UserServiceError
				assert.ErrorAs(t, err, &svcErr)
				assert.Empty(t, token)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, []uuid.UUID{existing.ID}, f.tokens.GenerateCalls.Args())
			}
		})
	}
}

func TestUserService_Logout(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("revokes until the token expires", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)
		exp := f.now.Add(7 * time.Minute)
		f.tokens.Claims = &auth.Claims{UserID: userID, ExpiresAt: exp}

		require.NoError(t, f.svc.Logout(context.Background(), "tok"))
		assert.Equal(t, []mocks.Revocation{{Token: "tok", ExpiresAt: exp}}, f.revocations.RevokeCalls.Args())
	})

	t.Run("token without expiry is revoked for one lifetime", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)
		f.tokens.Claims = &auth.Claims{UserID: userID}

		require.NoError(t, f.svc.Logout(context.Background(), "tok"))
		assert.Equal(t,
			[]mocks.Revocation{{Token: "tok", ExpiresAt: f.now.Add(15 * time.Minute)}},
			f.revocations.RevokeCalls.Args())
	})

	t.Run("blank token", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)

		err := f.svc.Logout(context.Background(), "  ")
		assert.ErrorIs(t, err, auth.ErrMissingToken)
		assert.Zero(t, f.tokens.ValidateCalls.Count())
		assert.Zero(t, f.revocations.RevokeCalls.Count())
	})

	t.Run("invalid token", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)
		f.tokens.ValidateErr = auth.ErrInvalidToken

		err := f.svc.Logout(context.Background(), "garbage")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
		assert.Zero(t, f.revocations.RevokeCalls.Count())
	})

	t.Run("revocation store failure", func(t *testing.T) {
		t.Parallel()
		f := newUserFixture(t)
		f.tokens.Claims = &auth.Claims{UserID: userID, ExpiresAt: f.now.Add(time.Minute)}
		f.revocations.Err = errors.New("redis down")

		err := f.svc.Logout(context.Background(), "tok")
		var svcErr *service.UserServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "logout", svcErr.Operation)
	})
}
