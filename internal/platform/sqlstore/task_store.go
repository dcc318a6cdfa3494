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
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/store"
)

const taskColumns = `id, owner_id, title, description, due_date, priority, status, tags, created_at, updated_at`

// SQLTaskStore implements store.TaskStore on database/sql.
type SQLTaskStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Option customises a SQL store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSQLTaskStore creates a task store on db. If logger is nil, the default
// logger is used.
func NewSQLTaskStore(db *sql.DB, dialect Dialect, logger *slog.Logger, opts ...Option) *SQLTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := buildOptions(opts)
	return &SQLTaskStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "task_store")),
		now:     o.now,
	}
}

var _ store.TaskStore = (*SQLTaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *SQLTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	tags, err := encodeTags(task.Tags)
	if err != nil {
		return err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	q := s.dialect.Rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, q,
		task.ID,
		task.OwnerID.String(),
		task.Title,
		task.Description,
		s.dialect.nullTimeArg(task.DueDate),
		nullString(string(task.Priority)),
		string(task.Status),
		tags,
		s.dialect.timeArg(now),
		s.dialect.timeArg(now),
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create task: %w", MapError(err))
	}

	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Tags == nil {
		task.Tags = []string{}
	}
	log.Debug("task created", slog.String("task_id", task.ID))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *SQLTaskStore) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	return s.getByID(ctx, s.db, ownerID, id, "")
}

func (s *SQLTaskStore) getByID(
	ctx context.Context,
	db store.DBTX,
	ownerID uuid.UUID,
	id string,
	lock string,
) (*domain.Task, error) {
	q := s.dialect.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?` + lock)
	task, err := scanTask(db.QueryRowContext(ctx, q, id, ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("task_id", id),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return task, nil
}

// Find implements query.Finder.Find.
func (s *SQLTaskStore) Find(ctx context.Context, f query.Filter, opts query.FindOptions) ([]domain.Task, error) {
	where, args, err := whereClause(s.dialect, f)
	if err != nil {
		return nil, err
	}

	q := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ORDER BY ` + orderClause(opts.Sort)
	if opts.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(q), args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// Count implements query.Finder.Count.
func (s *SQLTaskStore) Count(ctx context.Context, f query.Filter) (int, error) {
	where, args, err := whereClause(s.dialect, f)
	if err != nil {
		return 0, err
	}

	var n int
	q := s.dialect.Rebind(`SELECT COUNT(*) FROM tasks WHERE ` + where)
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count tasks",
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to count tasks: %w", MapError(err))
	}
	return n, nil
}

// Update implements store.TaskStore.Update. The row is read and written in
// one transaction; on PostgreSQL it is locked for the duration.
func (s *SQLTaskStore) Update(
	ctx context.Context,
	ownerID uuid.UUID,
	id string,
	mutate store.MutateFunc,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := s.getByID(ctx, tx, ownerID, id, s.dialect.forUpdate())
		if err != nil {
			return err
		}

		if err := mutate(task); err != nil {
			return err
		}
		// Identity and ownership are not writable.
		task.ID, task.OwnerID = id, ownerID
		if err := task.Validate(); err != nil {
			return err
		}

		tags, err := encodeTags(task.Tags)
		if err != nil {
			return err
		}

		task.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)
		q := s.dialect.Rebind(`
			UPDATE tasks
			SET title = ?, description = ?, due_date = ?, priority = ?, status = ?, tags = ?, updated_at = ?
			WHERE id = ? AND owner_id = ?`)
		result, err := tx.ExecContext(ctx, q,
			task.Title,
			task.Description,
			s.dialect.nullTimeArg(task.DueDate),
			nullString(string(task.Priority)),
			string(task.Status),
			tags,
			s.dialect.timeArg(task.UpdatedAt),
			id,
			ownerID.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", MapError(err))
		}
		if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
			return err
		}

		if task.Tags == nil {
			task.Tags = []string{}
		}
		updated = task
		return nil
	})
	if err != nil {
		if !store.IsNotFoundError(err) && !errors.Is(err, domain.ErrValidation) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
				slog.String("task_id", id),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	return updated, nil
}

// Delete implements store.TaskStore.Delete. The row is removed and returned
// by a single DELETE ... RETURNING statement.
func (s *SQLTaskStore) Delete(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	q := s.dialect.Rebind(`DELETE FROM tasks WHERE id = ? AND owner_id = ? RETURNING ` + taskColumns)
	task, err := scanTask(s.db.QueryRowContext(ctx, q, id, ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("task_id", id),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to delete task: %w", MapError(err))
	}
	return task, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task      domain.Task
		ownerID   string
		dueDate   dbTime
		priority  sql.NullString
		status    string
		tags      tagList
		createdAt dbTime
		updatedAt dbTime
	)
	if err := row.Scan(
		&task.ID,
		&ownerID,
		&task.Title,
		&task.Description,
		&dueDate,
		&priority,
		&status,
		&tags,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", ownerID, err)
	}
	task.OwnerID = owner
	task.DueDate = dueDate.ptr()
	task.Priority = domain.TaskPriority(priority.String)
	task.Status = domain.TaskStatus(status)
	task.Tags = tags
	task.CreatedAt = createdAt.Time
	task.UpdatedAt = updatedAt.Time
	return &task, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
