package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore(t *testing.T) {
	t.Parallel()
	s := NewUserStore(nil)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: " Dana@Example.com", Username: "dana", Password: "x", HashedPassword: "hash"}
	require.NoError(t, s.Create(ctx, user))
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Empty(t, user.Password)

	got, err := s.GetByEmail(ctx, "DANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = s.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.HashedPassword)

	err = s.Create(ctx, &domain.User{ID: uuid.New(), Email: "dana@example.com", Username: "d2", HashedPassword: "hash"})
	assert.ErrorIs(t, err, store.ErrEmailExists)

	err = s.Create(ctx, &domain.User{ID: uuid.New(), Email: "eve@example.com", Username: "eve"})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	_, err = s.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
