// Package mocks provides shared mock implementations of the store, auth and
// service interfaces for tests.
//
// Each mock has a function field per method. When the field is set it
// decides the outcome; otherwise the mock falls back to its default values.
// Calls are recorded so tests can assert on how a collaborator was used:
//
//	tasks := &mocks.MockTaskStore{
//	    DeleteFn: func(ctx context.Context, owner uuid.UUID, id string) (*domain.Task, error) {
//	        return nil, store.ErrTaskNotFound
//	    },
//	}
//	// ...
//	assert.Zero(t, tasks.DeleteCalls.Count())
package mocks
