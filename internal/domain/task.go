package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Supported task statuses.
const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskPriority is the optional urgency of a task.
type TaskPriority string

// Supported task priorities.
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Field limits for tasks.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MaxTagLength         = 50
	MaxTags              = 50
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a personal to-do record owned by a single user.
type Task struct {
	ID          string       `json:"id"`
	OwnerID     uuid.UUID    `json:"ownerId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	Status      TaskStatus   `json:"status"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskFields are the client-writable attributes of a task.
type TaskFields struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    TaskPriority
	Status      TaskStatus
	Tags        []string
}

// NewTask builds a validated task with a fresh identifier. Timestamps are
// left for the store to assign.
func NewTask(ownerID uuid.UUID, fields TaskFields) (*Task, error) {
	t := &Task{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
	}
	t.Apply(fields)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Apply overwrites every client-writable attribute with fields.
func (t *Task) Apply(fields TaskFields) {
	t.Title = strings.TrimSpace(fields.Title)
	t.Description = fields.Description
	t.DueDate = fields.DueDate
	t.Priority = fields.Priority
	t.Status = fields.Status
	t.Tags = fields.Tags
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

// Validate checks the task's invariants and reports every failing field.
func (t *Task) Validate() error {
	verr := &ValidationError{}

	if t.ID == "" {
		verr.Add("id", `"id" is required`)
	}
	if t.OwnerID == uuid.Nil {
		verr.Add("ownerId", `"ownerId" is required`)
	}

	switch n := utf8.RuneCountInString(t.Title); {
	case n == 0:
		verr.Add("title", `"title" is not allowed to be empty`)
	case n > MaxTitleLength:
		verr.Add("title", fmt.Sprintf(`"title" length must be less than or equal to %d characters long`, MaxTitleLength))
	}

	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		verr.Add("description",
			fmt.Sprintf(`"description" length must be less than or equal to %d characters long`, MaxDescriptionLength))
	}

	if !t.Status.Valid() {
		verr.Add("status", `"status" must be one of [todo, in-progress, completed]`)
	}

	if t.Priority != "" && !t.Priority.Valid() {
		verr.Add("priority", `"priority" must be one of [low, medium, high]`)
	}

	if len(t.Tags) > MaxTags {
		verr.Add("tags", fmt.Sprintf(`"tags" must contain less than or equal to %d items`, MaxTags))
	}
	for i, tag := range t.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			verr.Add(fmt.Sprintf("tags.%d", i),
				fmt.Sprintf(`"tags[%d]" length must be less than or equal to %d characters long`, i, MaxTagLength))
		}
	}

	return verr.OrNil()
}

// TaskPatch lists the attributes a partial update changes. Nil fields are
// left alone; ClearDueDate removes the due date and takes precedence over
// DueDate.
type TaskPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *TaskPriority
	Status       *TaskStatus
	Tags         []string
	SetTags      bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.Priority == nil && p.Status == nil && !p.SetTags
}

// ApplyPatch overwrites the attributes present in p. The result is not
// validated.
func (t *Task) ApplyPatch(p TaskPatch) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.SetTags {
		t.Tags = p.Tags
		if t.Tags == nil {
			t.Tags = []string{}
		}
	}
}
