package api

import (
	"encoding/json"
	"errors"

	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// TaskRequest is the body of POST /tasks and PUT /tasks/{id}. Every
// writable field is sent; omitted optional fields are cleared on PUT.
type TaskRequest struct {
	Title       *string  `json:"title"       validate:"required,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	DueDate     *string  `json:"dueDate"     validate:"omitempty,date"`
	Priority    *string  `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status      *string  `json:"status"      validate:"required,oneof=todo in-progress completed"`
	Tags        []string `json:"tags"        validate:"omitempty,max=50,dive,max=50"`
}

// Fields converts a validated request into domain fields.
func (req TaskRequest) Fields() (domain.TaskFields, error) {
	fields := domain.TaskFields{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Priority:    domain.TaskPriority(deref(req.Priority)),
		Status:      domain.TaskStatus(deref(req.Status)),
		Tags:        req.Tags,
	}
	if req.DueDate != nil {
		due, err := shared.ParseDate(*req.DueDate)
		if err != nil {
			return domain.TaskFields{}, invalidDueDate()
		}
		fields.DueDate = &due
	}
	return fields, nil
}

// NullableDate records whether a JSON date field was present, and whether it
// was an explicit null.
type NullableDate struct {
	Set   bool
	Null  bool
	Value string
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *NullableDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" {
		d.Null = true
		return nil
	}
	return json.Unmarshal(b, &d.Value)
}

// PatchTaskRequest is the body of PATCH /tasks/{id}. Absent fields are left
// unchanged; a null dueDate removes the due date.
type PatchTaskRequest struct {
	Title       *string      `json:"title"       validate:"omitempty,max=100"`
	Description *string      `json:"description" validate:"omitempty,max=1000"`
	DueDate     NullableDate `json:"dueDate"`
	Priority    *string      `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status      *string      `json:"status"      validate:"omitempty,oneof=todo in-progress completed"`
	Tags        *[]string    `json:"tags"        validate:"omitempty,max=50,dive,max=50"`
}

// validate checks the tagged fields and the due date together.
func (req PatchTaskRequest) validate() error {
	verr := &domain.ValidationError{}
	if err := shared.ValidateRequest(req); err != nil && !errors.As(err, &verr) {
		return err
	}
	if req.DueDate.Set && !req.DueDate.Null {
		if _, err := shared.ParseDate(req.DueDate.Value); err != nil {
			verr.Add("dueDate", `"dueDate" must be a valid date`)
		}
	}
	return verr.OrNil()
}

// Patch converts a validated request into a domain patch.
func (req PatchTaskRequest) Patch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := domain.TaskPriority(*req.Priority)
		patch.Priority = &p
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		patch.Status = &s
	}
	if req.Tags != nil {
		patch.Tags = *req.Tags
		patch.SetTags = true
	}
	switch {
	case req.DueDate.Null:
		patch.ClearDueDate = true
	case req.DueDate.Set:
		due, err := shared.ParseDate(req.DueDate.Value)
		if err != nil {
			return domain.TaskPatch{}, invalidDueDate()
		}
		patch.DueDate = &due
	}
	return patch, nil
}

// BulkDeleteRequest is the body of DELETE /tasks/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func invalidDueDate() error {
	return domain.NewValidationError("dueDate", `"dueDate" must be a valid date`, nil)
}
