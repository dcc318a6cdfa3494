package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/store"
)

// TaskStore is an in-memory store.TaskStore.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	now   func() time.Time
}

// NewTaskStore returns an empty TaskStore. A nil now uses time.Now.
func NewTaskStore(now func() time.Time) *TaskStore {
	if now == nil {
		now = time.Now
	}
	return &TaskStore{tasks: make(map[string]domain.Task), now: now}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	now := s.now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now
	if task.Tags == nil {
		task.Tags = []string{}
	}
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(_ context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	out := cloneTask(task)
	return &out, nil
}

// Find implements query.Finder.Find.
func (s *TaskStore) Find(_ context.Context, f query.Filter, opts query.FindOptions) ([]domain.Task, error) {
	matched := s.matching(f)
	slices.SortFunc(matched, func(a, b domain.Task) int {
		return compareTasks(a, b, opts.Sort)
	})

	if opts.Offset >= len(matched) {
		return []domain.Task{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Count implements query.Finder.Count.
func (s *TaskStore) Count(_ context.Context, f query.Filter) (int, error) {
	return len(s.matching(f)), nil
}

func (s *TaskStore) matching(f query.Filter) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Task{}
	for _, task := range s.tasks {
		if query.Matches(f, task) {
			out = append(out, cloneTask(task))
		}
	}
	return out
}

// Update implements store.TaskStore.Update.
func (s *TaskStore) Update(
	_ context.Context,
	ownerID uuid.UUID,
	id string,
	mutate store.MutateFunc,
) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[id]
	if !ok || current.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}

	task := cloneTask(current)
	if err := mutate(&task); err != nil {
		return nil, err
	}
	task.ID, task.OwnerID, task.CreatedAt = id, ownerID, current.CreatedAt
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	task.UpdatedAt = s.now().UTC()

	s.tasks[id] = cloneTask(task)
	return &task, nil
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(_ context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return &task, nil
}

// compareTasks orders by the sort keys, then by id. Missing due dates and
// priorities sort after present ones in either direction.
func compareTasks(a, b domain.Task, keys []query.SortField) int {
	for _, key := range keys {
		if c := compareMissing(a, b, key.Field); c != 0 {
			return c
		}
		c := compareField(a, b, key.Field)
		if key.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

func compareMissing(a, b domain.Task, field string) int {
	var aMissing, bMissing bool
	switch field {
	case query.FieldDueDate:
		aMissing, bMissing = a.DueDate == nil, b.DueDate == nil
	case query.FieldPriority:
		aMissing, bMissing = a.Priority == "", b.Priority == ""
	}
	switch {
	case aMissing == bMissing:
		return 0
	case aMissing:
		return 1
	default:
		return -1
	}
}

func compareField(a, b domain.Task, field string) int {
	switch field {
	case query.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case query.FieldUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case query.FieldTitle:
		return cmp.Compare(a.Title, b.Title)
	case query.FieldDescription:
		return cmp.Compare(a.Description, b.Description)
	case query.FieldPriority:
		return cmp.Compare(a.Priority, b.Priority)
	case query.FieldStatus:
		return cmp.Compare(a.Status, b.Status)
	case query.FieldDueDate:
		if a.DueDate == nil || b.DueDate == nil {
			return 0
		}
		return a.DueDate.Compare(*b.DueDate)
	default:
		return 0
	}
}

func cloneTask(t domain.Task) domain.Task {
	t.Tags = slices.Clone(t.Tags)
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}
