package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("database connection failed")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "task with cause",
			err:      NewTaskServiceError("create", "store operation failed", cause),
			expected: "task service create failed: store operation failed: database connection failed",
		},
		{
			name:     "task without cause",
			err:      NewTaskServiceError("list", "failed to query tasks", nil),
			expected: "task service list failed: failed to query tasks",
		},
		{
			name:     "user with cause",
			err:      NewUserServiceError("login", "failed to look up user", cause),
			expected: "user service login failed: failed to look up user: database connection failed",
		},
		{
			name:     "user without cause",
			err:      NewUserServiceError("logout", "failed to revoke token", nil),
			expected: "user service logout failed: failed to revoke token",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}

	assert.ErrorIs(t, NewTaskServiceError("get", "x", cause), cause)
	assert.ErrorIs(t, NewUserServiceError("register", "x", cause), cause)
}
