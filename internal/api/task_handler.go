package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/bulk"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service"
)

// Success messages of the task endpoints.
const (
	MsgTasksFetched   = "Success to fetch tasks"
	MsgTaskFetched    = "Success to get detail task"
	MsgTaskCreated    = "Task successfully added"
	MsgTaskUpdated    = "Task successfully updated"
	MsgTaskDeleted    = "Task deleted"
	MsgBulkDeleteDone = "Bulk delete task completed"
)

// TaskHandler handles the /tasks endpoints. Every route requires an
// authenticated user and only ever sees that user's tasks.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tasks cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	page, err := h.tasks.List(r.Context(), ownerID, listParams(r.URL.Query()))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{
		Message: MsgTasksFetched,
		Data:    page.Items,
		Meta: &shared.Meta{
			TotalCount: page.TotalCount,
			Page:       page.Page,
			TotalPages: page.TotalPages,
		},
	})
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), ownerID, taskID(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithMessage(w, r, http.StatusOK, MsgTaskFetched, task)
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	fields, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Create(r.Context(), ownerID, fields)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithMessage(w, r, http.StatusCreated, MsgTaskCreated, task)
}

// Replace handles PUT /tasks/{id}.
func (h *TaskHandler) Replace(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	fields, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Replace(r.Context(), ownerID, taskID(r), fields)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithMessage(w, r, http.StatusOK, MsgTaskUpdated, task)
}

// Patch handles PATCH /tasks/{id}.
func (h *TaskHandler) Patch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	var req PatchTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := req.validate(); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	patch, err := req.Patch()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Patch(r.Context(), ownerID, taskID(r), patch)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithMessage(w, r, http.StatusOK, MsgTaskUpdated, task)
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	task, err := h.tasks.Delete(r.Context(), ownerID, taskID(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithMessage(w, r, http.StatusOK, MsgTaskDeleted, task)
}

// BulkDelete handles DELETE /tasks/bulk-delete. The response is 200 even
// when some or all ids fail; per-id outcomes are in the body.
func (h *TaskHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	var req BulkDeleteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("bulk delete body rejected", slog.String("error", err.Error()))
		HandleAPIError(w, r, bulk.ErrNoIDs, "")
		return
	}

	result, err := h.tasks.BulkDelete(r.Context(), ownerID, req.IDs)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithMessage(w, r, http.StatusOK, MsgBulkDeleteDone, result)
}

// decodeTask reads and validates a full task body, writing the error
// response itself when it fails.
func (h *TaskHandler) decodeTask(w http.ResponseWriter, r *http.Request) (domain.TaskFields, bool) {
	var req TaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return domain.TaskFields{}, false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return domain.TaskFields{}, false
	}

	fields, err := req.Fields()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return domain.TaskFields{}, false
	}
	return fields, true
}
