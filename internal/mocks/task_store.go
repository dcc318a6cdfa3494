package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. Methods without a
// function field return Err.
type MockTaskStore struct {
	CreateFn  func(ctx context.Context, task *domain.Task) error
	GetByIDFn func(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error)
	FindFn    func(ctx context.Context, f query.Filter, opts query.FindOptions) ([]domain.Task, error)
	CountFn   func(ctx context.Context, f query.Filter) (int, error)
	UpdateFn  func(ctx context.Context, ownerID uuid.UUID, id string, mutate store.MutateFunc) (*domain.Task, error)
	DeleteFn  func(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error)

	Err error

	CreateCalls CallLog[*domain.Task]
	FindCalls   CallLog[query.FindOptions]
	UpdateCalls CallLog[string]
	DeleteCalls CallLog[string]
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create implements store.TaskStore
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.CreateCalls.record(task)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	return m.Err
}

// GetByID implements store.TaskStore
func (m *MockTaskStore) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, ownerID, id)
	}
	return nil, m.Err
}

// Find implements query.Finder
func (m *MockTaskStore) Find(ctx context.Context, f query.Filter, opts query.FindOptions) ([]domain.Task, error) {
	m.FindCalls.record(opts)
	if m.FindFn != nil {
		return m.FindFn(ctx, f, opts)
	}
	return nil, m.Err
}

// Count implements query.Finder
func (m *MockTaskStore) Count(ctx context.Context, f query.Filter) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, f)
	}
	return 0, m.Err
}

// Update implements store.TaskStore
func (m *MockTaskStore) Update(
	ctx context.Context,
	ownerID uuid.UUID,
	id string,
	mutate store.MutateFunc,
) (*domain.Task, error) {
	m.UpdateCalls.record(id)
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, ownerID, id, mutate)
	}
	return nil, m.Err
}

// Delete implements store.TaskStore
func (m *MockTaskStore) Delete(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error) {
	m.DeleteCalls.record(id)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, ownerID, id)
	}
	return nil, m.Err
}
