package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/bulk"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/store"
)

// TaskNotFoundMessage is reported for bulk items that did not resolve to one
// of the caller's tasks.
const TaskNotFoundMessage = "Task not found"

// ListParams are the client's listing options.
type ListParams struct {
	query.Params
	Sort  string
	Page  int
	Limit int
}

// TaskService provides the task use cases. Every operation is scoped to the
// owner; another user's task is indistinguishable from a missing one.
type TaskService interface {
	// List returns one page of the owner's tasks matching params.
	List(ctx context.Context, ownerID uuid.UUID, params ListParams) (*query.Page, error)

	// Get returns a single task.
	Get(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error)

	// Create validates and stores a new task.
	Create(ctx context.Context, ownerID uuid.UUID, fields domain.TaskFields) (*domain.Task, error)

	// Replace overwrites every writable field of a task.
	Replace(ctx context.Context, ownerID uuid.UUID, id string, fields domain.TaskFields) (*domain.Task, error)

	// Patch changes only the fields present in patch.
	Patch(ctx context.Context, ownerID uuid.UUID, id string, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes a task and returns it.
	Delete(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error)

	// BulkDelete deletes each id independently and reports per-item outcomes.
	BulkDelete(ctx context.Context, ownerID uuid.UUID, ids []string) (*bulk.Result, error)
}

type taskServiceImpl struct {
	tasks      store.TaskStore
	engine     *query.Engine
	bulk       *bulk.Aggregator
	bulkMaxIDs int
	logger     *slog.Logger
}

// TaskServiceConfig holds the listing and bulk limits of a TaskService.
type TaskServiceConfig struct {
	Query query.EngineConfig
	Bulk  bulk.Config
}

// NewTaskService creates a TaskService on tasks.
func NewTaskService(tasks store.TaskStore, cfg TaskServiceConfig, logger *slog.Logger) (TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("%w: tasks", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}

	bulkCfg := cfg.Bulk
	if bulkCfg.NotFoundMessage == "" {
		bulkCfg.NotFoundMessage = TaskNotFoundMessage
	}

	return &taskServiceImpl{
		tasks:      tasks,
		engine:     query.NewEngine(tasks, cfg.Query),
		bulk:       bulk.NewAggregator(bulkCfg),
		bulkMaxIDs: bulkCfg.MaxIDs,
		logger:     logger.With(slog.String("component", "task_service")),
	}, nil
}

// List implements TaskService.List.
func (s *taskServiceImpl) List(ctx context.Context, ownerID uuid.UUID, params ListParams) (*query.Page, error) {
	filter := query.Build(ownerID, params.Params)
	page, err := s.engine.Run(ctx, filter, query.Options{
		Sort:  params.Sort,
		Page:  params.Page,
		Limit: params.Limit,
	})
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to query tasks", err)
	}
	return page, nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, s.wrap(ctx, "get", id, err)
	}
	return task, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, fields domain.TaskFields) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, fields)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, s.wrap(ctx, "create", task.ID, err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// Replace implements TaskService.Replace.
func (s *taskServiceImpl) Replace(
	ctx context.Context,
	ownerID uuid.UUID,
	id string,
	fields domain.TaskFields,
) (*domain.Task, error) {
	task, err := s.tasks.Update(ctx, ownerID, id, func(t *domain.Task) error {
		t.Apply(fields)
		return nil
	})
	if err != nil {
		return nil, s.wrap(ctx, "replace", id, err)
	}
	return task, nil
}

// Patch implements TaskService.Patch.
func (s *taskServiceImpl) Patch(
	ctx context.Context,
	ownerID uuid.UUID,
	id string,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	if patch.Empty() {
		return nil, domain.NewValidationError("",
			`"value" must contain at least one of [title, description, dueDate, priority, status, tags]`, nil)
	}

	task, err := s.tasks.Update(ctx, ownerID, id, func(t *domain.Task) error {
		t.ApplyPatch(patch)
		return nil
	})
	if err != nil {
		return nil, s.wrap(ctx, "patch", id, err)
	}
	return task, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	task, err := s.tasks.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, s.wrap(ctx, "delete", id, err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted", slog.String("task_id", id))
	return task, nil
}

// BulkDelete implements TaskService.BulkDelete. Each delete is independent:
// a failing id never prevents or rolls back the others. An oversized batch
// is a validation error that still matches bulk.ErrTooManyIDs.
func (s *taskServiceImpl) BulkDelete(ctx context.Context, ownerID uuid.UUID, ids []string) (*bulk.Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.bulk.Run(ctx, ids, func(ctx context.Context, id string) error {
		_, err := s.tasks.Delete(ctx, ownerID, id)
		if errors.Is(err, store.ErrTaskNotFound) {
			return fmt.Errorf("%w: %s", bulk.ErrNotFound, id)
		}
		return err
	})
	if errors.Is(err, bulk.ErrTooManyIDs) {
		return nil, domain.NewValidationError("ids",
			fmt.Sprintf(`"ids" must contain less than or equal to %d items`, s.bulkMaxIDs), err)
	}
	if err != nil {
		return nil, err
	}

	log.Info("bulk delete completed",
		slog.Int("requested", len(ids)),
		slog.Int("deleted", len(result.Deleted)),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}

// wrap passes expected conditions through and wraps anything else.
func (s *taskServiceImpl) wrap(ctx context.Context, op, id string, err error) error {
	if store.IsNotFoundError(err) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("task operation failed",
		slog.String("operation", op),
		slog.String("task_id", id),
		slog.String("error", err.Error()))
	return NewTaskServiceError(op, "store operation failed", err)
}
