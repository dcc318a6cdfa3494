package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/mocks"
	"github.com/phrazzld/taskman-api/internal/platform/memory"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskHandler_PanicsOnNilService(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewTaskHandler(nil, nil) })
}

func TestTaskHandler_RequiresUser(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	rec := do(t, h, http.MethodGet, "/tasks", nil, uuid.Nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgUnauthorized, decode[shared.ErrorResponse](t, rec).Message)
}

func TestTaskHandler_CreateAndGet(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	owner := uuid.New()

	rec := do(t, h, http.MethodPost, "/tasks", map[string]any{
		"title":       "  Write report  ",
		"description": "quarterly numbers",
		"dueDate":     "2025-06-30",
		"priority":    "high",
		"status":      "todo",
		"tags":        []string{"work"},
	}, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[taskEnvelope](t, rec)
	assert.Equal(t, MsgTaskCreated, created.Message)
	assert.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "Write report", created.Data.Title)
	assert.Equal(t, owner, created.Data.OwnerID)
	assert.Equal(t, domain.PriorityHigh, created.Data.Priority)
	assert.Equal(t, []string{"work"}, created.Data.Tags)
	require.NotNil(t, created.Data.DueDate)
	assert.Equal(t, "2025-06-30", created.Data.DueDate.Format("2006-01-02"))
	assert.False(t, created.Data.CreatedAt.IsZero())

	rec = do(t, h, http.MethodGet, "/tasks/"+created.Data.ID, nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[taskEnvelope](t, rec)
	assert.Equal(t, MsgTaskFetched, got.Message)
	assert.Equal(t, created.Data.ID, got.Data.ID)

	t.Run("other owner sees not found", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/tasks/"+created.Data.ID, nil, uuid.New())
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, MsgTaskNotFound, decode[shared.ErrorResponse](t, rec).Message)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/tasks/does-not-exist", nil, owner)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskHandler_CreateValidation(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	owner := uuid.New()

	tests := []struct {
		name        string
		body        any
		wantStatus  int
		wantMessage string
		wantDetail  string
		wantPath    []any
	}{
		{
			name:        "missing title",
			body:        map[string]any{"status": "todo"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: shared.ValidationErrorMessage,
			wantDetail:  `"title" is required`,
			wantPath:    []any{"title"},
		},
		{
			name:        "missing status",
			body:        map[string]any{"title": "x"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: shared.ValidationErrorMessage,
			wantDetail:  `"status" is required`,
			wantPath:    []any{"status"},
		},
		{
			name:        "bad status",
			body:        map[string]any{"title": "x", "status": "done"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: shared.ValidationErrorMessage,
			wantDetail:  `"status" must be one of [todo, in-progress, completed]`,
			wantPath:    []any{"status"},
		},
		{
			name:        "bad due date",
			body:        map[string]any{"title": "x", "status": "todo", "dueDate": "someday"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: shared.ValidationErrorMessage,
			wantDetail:  `"dueDate" must be a valid date`,
			wantPath:    []any{"dueDate"},
		},
		{
			name:        "unknown field",
			body:        map[string]any{"title": "x", "status": "todo", "owner": "me"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: shared.ValidationErrorMessage,
			wantDetail:  `"owner" is not allowed`,
			wantPath:    []any{"owner"},
		},
		{
			name:        "tag too long",
			body:        map[string]any{"title": "x", "status": "todo", "tags": []string{"ok", string(make([]byte, 51))}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: shared.ValidationErrorMessage,
			wantPath:    []any{"tags", float64(1)},
		},
		{
			name:        "malformed json",
			body:        `{"title": `,
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgInvalidRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, h, http.MethodPost, "/tasks", tt.body, owner)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			resp := decode[shared.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantMessage, resp.Message)
			if tt.wantPath == nil {
				assert.Empty(t, resp.Details)
				return
			}
			require.NotEmpty(t, resp.Details)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, resp.Details[0].Message)
			}
			assert.Equal(t, tt.wantPath, resp.Details[0].Path)
		})
	}
}

func TestTaskHandler_Replace(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	owner := uuid.New()
	task := createTask(t, h, owner, map[string]any{
		"title":    "Original",
		"priority": "low",
		"dueDate":  "2025-07-01",
		"tags":     []string{"a"},
	})

	rec := do(t, h, http.MethodPut, "/tasks/"+task.ID, map[string]any{
		"title":  "Replaced",
		"status": "in-progress",
	}, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[taskEnvelope](t, rec)
	assert.Equal(t, MsgTaskUpdated, got.Message)
	assert.Equal(t, "Replaced", got.Data.Title)
	assert.Equal(t, domain.StatusInProgress, got.Data.Status)
	assert.Empty(t, got.Data.Priority, "omitted optional fields are cleared")
	assert.Nil(t, got.Data.DueDate)
	assert.Empty(t, got.Data.Tags)
	assert.Equal(t, task.CreatedAt, got.Data.CreatedAt)
	assert.True(t, got.Data.UpdatedAt.After(task.UpdatedAt))

	t.Run("incomplete body", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/tasks/"+task.ID, map[string]any{"title": "only"}, owner)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign task", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/tasks/"+task.ID,
			map[string]any{"title": "hijack", "status": "todo"}, uuid.New())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskHandler_Patch(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	owner := uuid.New()
	task := createTask(t, h, owner, map[string]any{
		"title":    "Patch me",
		"priority": "medium",
		"dueDate":  "2025-07-01",
	})

	t.Run("changes only present fields", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/tasks/"+task.ID, map[string]any{"status": "completed"}, owner)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decode[taskEnvelope](t, rec).Data
		assert.Equal(t, domain.StatusCompleted, got.Status)
		assert.Equal(t, "Patch me", got.Title)
		assert.Equal(t, domain.PriorityMedium, got.Priority)
		assert.NotNil(t, got.DueDate)
	})

	t.Run("null due date clears it", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/tasks/"+task.ID, `{"dueDate": null}`, owner)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Nil(t, decode[taskEnvelope](t, rec).Data.DueDate)
	})

	t.Run("invalid value", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/tasks/"+task.ID, map[string]any{"priority": "urgent"}, owner)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, shared.ValidationErrorMessage, decode[shared.ErrorResponse](t, rec).Message)
	})

	t.Run("invalid due date", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/tasks/"+task.ID, map[string]any{"dueDate": "tomorrow-ish"}, owner)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[shared.ErrorResponse](t, rec)
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, `"dueDate" must be a valid date`, resp.Details[0].Message)
	})

	t.Run("empty patch", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/tasks/"+task.ID, `{}`, owner)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign task", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/tasks/"+task.ID, map[string]any{"title": "x"}, uuid.New())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	owner := uuid.New()
	task := createTask(t, h, owner, map[string]any{"title": "Delete me"})

	rec := do(t, h, http.MethodDelete, "/tasks/"+task.ID, nil, uuid.New())
	assert.Equal(t, http.StatusNotFound, rec.Code, "another user cannot delete")

	rec = do(t, h, http.MethodDelete, "/tasks/"+task.ID, nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[taskEnvelope](t, rec)
	assert.Equal(t, MsgTaskDeleted, got.Message)
	assert.Equal(t, task.ID, got.Data.ID)

	rec = do(t, h, http.MethodDelete, "/tasks/"+task.ID, nil, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_List(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	owner := uuid.New()
	for i := 0; i < 12; i++ {
		status := "todo"
		if i%3 == 0 {
			status = "completed"
		}
		createTask(t, h, owner, map[string]any{
			"title":  fmt.Sprintf("Task %02d", i),
			"status": status,
		})
	}
	createTask(t, h, uuid.New(), map[string]any{"title": "Someone else's"})

	tests := []struct {
		name           string
		query          string
		wantCount      int
		wantTotal      int
		wantPage       int
		wantTotalPages int
		wantFirst      string
	}{
		{
			name:           "defaults newest first",
			query:          "",
			wantCount:      10,
			wantTotal:      12,
			wantPage:       1,
			wantTotalPages: 2,
			wantFirst:      "Task 11",
		},
		{
			name:           "second page",
			query:          "?page=2",
			wantCount:      2,
			wantTotal:      12,
			wantPage:       2,
			wantTotalPages: 2,
			wantFirst:      "Task 01",
		},
		{
			name:           "status filter",
			query:          "?status=completed&sort=title",
			wantCount:      4,
			wantTotal:      4,
			wantPage:       1,
			wantTotalPages: 1,
			wantFirst:      "Task 00",
		},
		{
			name:           "search and limit",
			query:          "?search=task%201&limit=1&sort=-title",
			wantCount:      1,
			wantTotal:      2,
			wantPage:       1,
			wantTotalPages: 2,
			wantFirst:      "Task 11",
		},
		{
			name:           "malformed paging falls back",
			query:          "?page=abc&limit=-5",
			wantCount:      10,
			wantTotal:      12,
			wantPage:       1,
			wantTotalPages: 2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, h, http.MethodGet, "/tasks"+tt.query, nil, owner)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			got := decode[listEnvelope](t, rec)
			assert.Equal(t, MsgTasksFetched, got.Message)
			assert.Len(t, got.Data, tt.wantCount)
			assert.Equal(t, tt.wantTotal, got.Meta.TotalCount)
			assert.Equal(t, tt.wantPage, got.Meta.Page)
			assert.Equal(t, tt.wantTotalPages, got.Meta.TotalPages)
			if tt.wantFirst != "" {
				require.NotEmpty(t, got.Data)
				assert.Equal(t, tt.wantFirst, got.Data[0].Title)
			}
			for _, task := range got.Data {
				assert.Equal(t, owner, task.OwnerID)
			}
		})
	}
}

func TestTaskHandler_ListEmpty(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	rec := do(t, h, http.MethodGet, "/tasks", nil, uuid.New())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"message":"Success to fetch tasks","data":[],"meta":{"totalCount":0,"page":1,"totalPages":0}}`,
		rec.Body.String())
}

func TestTaskHandler_BulkDelete(t *testing.T) {
	t.Parallel()

	h := newTaskRouter(t, memory.NewTaskStore(testClock()))
	owner := uuid.New()
	first := createTask(t, h, owner, map[string]any{"title": "one"})
	second := createTask(t, h, owner, map[string]any{"title": "two"})
	foreign := createTask(t, h, uuid.New(), map[string]any{"title": "not yours"})

	rec := do(t, h, http.MethodDelete, "/tasks/bulk-delete", map[string]any{
		"ids": []string{first.ID, second.ID, foreign.ID, "missing"},
	}, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[bulkEnvelope](t, rec)
	assert.Equal(t, MsgBulkDeleteDone, got.Message)

	deleted := append([]string(nil), got.Data.Deleted...)
	sort.Strings(deleted)
	want := []string{first.ID, second.ID}
	sort.Strings(want)
	assert.Equal(t, want, deleted)

	failed := map[string]string{}
	for _, f := range got.Data.Failed {
		failed[f.ID] = f.Error
	}
	assert.Equal(t, map[string]string{
		foreign.ID: service.TaskNotFoundMessage,
		"missing":  service.TaskNotFoundMessage,
	}, failed)

	rec = do(t, h, http.MethodGet, "/tasks/"+foreign.ID, nil, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/tasks/"+first.ID, nil, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code, "deleted task is gone")
}

func TestTaskHandler_BulkDeleteRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        any
		wantMessage string
	}{
		{name: "empty list", body: `{"ids": []}`, wantMessage: MsgProvideTaskIDList},
		{name: "missing ids", body: `{}`, wantMessage: MsgProvideTaskIDList},
		{name: "not an array", body: `{"ids": "abc"}`, wantMessage: MsgProvideTaskIDList},
		{name: "malformed", body: `{"ids": [`, wantMessage: MsgProvideTaskIDList},
		{
			name:        "too many",
			body:        map[string]any{"ids": []string{"1", "2", "3", "4", "5", "6"}},
			wantMessage: shared.ValidationErrorMessage,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tasks := &mocks.MockTaskStore{}
			h := newTaskRouter(t, tasks)

			rec := do(t, h, http.MethodDelete, "/tasks/bulk-delete", tt.body, uuid.New())
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantMessage, decode[shared.ErrorResponse](t, rec).Message)
			assert.Zero(t, tasks.DeleteCalls.Count())
		})
	}
}

func TestTaskHandler_StoreFailureIsInternal(t *testing.T) {
	t.Parallel()

	tasks := &mocks.MockTaskStore{Err: errors.New("pq: password authentication failed for user admin")}
	tasks.CountFn = func(context.Context, query.Filter) (int, error) { return 0, tasks.Err }
	h := newTaskRouter(t, tasks)

	tests := []struct {
		method string
		target string
		body   any
	}{
		{method: http.MethodGet, target: "/tasks"},
		{method: http.MethodGet, target: "/tasks/abc"},
		{method: http.MethodPost, target: "/tasks", body: map[string]any{"title": "x", "status": "todo"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			t.Parallel()

			rec := do(t, h, tt.method, tt.target, tt.body, uuid.New())
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, MsgInternalError, decode[shared.ErrorResponse](t, rec).Message)
			assert.NotContains(t, rec.Body.String(), "password")
		})
	}
}
