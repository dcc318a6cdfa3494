package sqlstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// testClock hands out strictly increasing timestamps so ordering by
// created_at is deterministic.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// newTestDB returns a migrated, private in-memory SQLite database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = Migrate(context.Background(), db, SQLite, MigrateUp, nil)
	require.NoError(t, err)
	return db
}

// seedUser inserts a user so tasks can reference it as owner.
func seedUser(t *testing.T, users *SQLUserStore) uuid.UUID {
	t.Helper()

	user := &domain.User{
		ID:             uuid.New(),
		Email:          uuid.NewString()[:8] + "@example.com",
		Username:       "tester",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuuN5pQb1ZrUyB7ZzZ3YQ7H6k8rE7WqG2",
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user.ID
}

func newTask(t *testing.T, owner uuid.UUID, title string, mutate ...func(*domain.TaskFields)) *domain.Task {
	t.Helper()

	fields := domain.TaskFields{Title: title, Status: domain.StatusTodo}
	for _, m := range mutate {
		m(&fields)
	}
	task, err := domain.NewTask(owner, fields)
	require.NoError(t, err)
	return task
}
