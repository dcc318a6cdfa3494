package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/phrazzld/taskman-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresRoundTrip runs the stores against a real PostgreSQL server.
func TestPostgresRoundTrip(t *testing.T) {
	url := testdb.PostgresURL(t)

	ctx := context.Background()
	db, dialect, err := Open(ctx, config.DatabaseConfig{
		Driver:          "pgx",
		URL:             url,
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.Equal(t, Postgres, dialect)

	_, err = Migrate(ctx, db, dialect, MigrateUp, nil)
	require.NoError(t, err)

	users := NewSQLUserStore(db, dialect, nil)
	tasks := NewSQLTaskStore(db, dialect, nil)
	revocations := NewSQLRevocationStore(db, dialect, nil)
	owner := seedUser(t, users)

	task := newTask(t, owner, "Postgres task", func(tf *domain.TaskFields) {
		tf.Description = "50% done"
		tf.Tags = []string{"pg"}
	})
	require.NoError(t, tasks.Create(ctx, task))

	found, err := tasks.Find(ctx,
		query.Conjoin(query.OwnedBy{OwnerID: owner}, query.SearchText{Text: "50%"}),
		query.FindOptions{Sort: query.ParseSort(""), Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"pg"}, found[0].Tags)

	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	apples := newTask(t, owner, "ÄPFEL kaufen", func(tf *domain.TaskFields) { tf.DueDate = &due })
	require.NoError(t, tasks.Create(ctx, apples))

	folded, err := tasks.Find(ctx, query.Build(owner, query.Params{Search: "äpfel"}), query.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{apples.ID}, ids(folded))

	byDue, err := tasks.Find(ctx, query.OwnedBy{OwnerID: owner},
		query.FindOptions{Sort: query.ParseSort("dueDate")})
	require.NoError(t, err)
	assert.Equal(t, []string{apples.ID, task.ID}, ids(byDue), "missing due dates sort last")

	updated, err := tasks.Update(ctx, owner, task.ID, func(cur *domain.Task) error {
		cur.Status = domain.StatusCompleted
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	_, err = tasks.Delete(ctx, owner, task.ID)
	require.NoError(t, err)
	_, err = tasks.GetByID(ctx, owner, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	token := "pg-token-" + task.ID
	require.NoError(t, revocations.Revoke(ctx, token, time.Now().Add(-time.Second)))
	revoked, err := revocations.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)
	_, err = revocations.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	revoked, err = revocations.IsRevoked(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)
}
