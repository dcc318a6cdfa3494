package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/query"
)

// MutateFunc edits a task in place during TaskStore.Update.
type MutateFunc func(task *domain.Task) error

// TaskStore defines the interface for task persistence.
// Single-record operations are scoped to an owner; a task owned by someone
// else is reported as ErrTaskNotFound.
type TaskStore interface {
	query.Finder

	// Create persists a new task, setting CreatedAt and UpdatedAt.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns the owner's task with the given id.
	GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error)

	// Update loads the owner's task, hands it to mutate and persists the result
	// atomically, refreshing UpdatedAt. An error from mutate aborts the update
	// and is returned unchanged.
	Update(ctx context.Context, ownerID uuid.UUID, id string, mutate MutateFunc) (*domain.Task, error)

	// Delete removes the owner's task and returns the record that was removed.
	Delete(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Task, error)
}
