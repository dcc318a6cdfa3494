package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/bulk"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// newTaskRouter mounts a TaskHandler over tasks the same way the server does,
// minus the auth middleware; requests carry their user via asUser.
func newTaskRouter(t *testing.T, tasks store.TaskStore) http.Handler {
	t.Helper()
	svc, err := service.NewTaskService(tasks, service.TaskServiceConfig{
		Query: query.DefaultEngineConfig(),
		Bulk:  bulk.Config{MaxIDs: 5},
	}, testLogger())
	require.NoError(t, err)

	h := NewTaskHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Get("/tasks", h.List)
	r.Post("/tasks", h.Create)
	r.Delete("/tasks/bulk-delete", h.BulkDelete)
	r.Get("/tasks/{id}", h.Get)
	r.Put("/tasks/{id}", h.Replace)
	r.Patch("/tasks/{id}", h.Patch)
	r.Delete("/tasks/{id}", h.Delete)
	return r
}

func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := shared.WithUser(r.Context(), &domain.User{ID: userID})
	return r.WithContext(ctx)
}

func do(t *testing.T, h http.Handler, method, target string, body any, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req = asUser(req, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// taskEnvelope is the success body of single-task endpoints.
type taskEnvelope struct {
	Message string      `json:"message"`
	Data    domain.Task `json:"data"`
}

type listEnvelope struct {
	Message string        `json:"message"`
	Data    []domain.Task `json:"data"`
	Meta    shared.Meta   `json:"meta"`
}

type bulkEnvelope struct {
	Message string      `json:"message"`
	Data    bulk.Result `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createTask(t *testing.T, h http.Handler, owner uuid.UUID, body map[string]any) domain.Task {
	t.Helper()
	if _, ok := body["status"]; !ok {
		body["status"] = "todo"
	}
	rec := do(t, h, http.MethodPost, "/tasks", body, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[taskEnvelope](t, rec).Data
}
