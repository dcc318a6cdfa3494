package query

import (
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// Filter is a predicate over tasks. The set of implementations is closed:
// All, StatusIs, PriorityIs, SearchText, OwnedBy and And.
type Filter interface {
	isFilter()
}

// All matches every task.
type All struct{}

// StatusIs matches tasks whose status equals Status exactly.
type StatusIs struct {
	Status domain.TaskStatus
}

// PriorityIs matches tasks whose priority equals Priority exactly.
type PriorityIs struct {
	Priority domain.TaskPriority
}

// SearchText matches tasks whose title or description contains Text,
// ignoring case. Text is matched literally.
type SearchText struct {
	Text string
}

// OwnedBy matches tasks that belong to OwnerID.
type OwnedBy struct {
	OwnerID uuid.UUID
}

// And matches tasks that satisfy both Left and Right.
type And struct {
	Left, Right Filter
}

func (All) isFilter()        {}
func (StatusIs) isFilter()   {}
func (PriorityIs) isFilter() {}
func (SearchText) isFilter() {}
func (OwnedBy) isFilter()    {}
func (And) isFilter()        {}

// Conjoin combines filters with And, dropping All and nil operands.
// It returns All when nothing constrains the result.
func Conjoin(filters ...Filter) Filter {
	var out Filter
	for _, f := range filters {
		if f == nil {
			continue
		}
		if _, ok := f.(All); ok {
			continue
		}
		if out == nil {
			out = f
			continue
		}
		out = And{Left: out, Right: f}
	}
	if out == nil {
		return All{}
	}
	return out
}

// Matches evaluates f against task in memory.
func Matches(f Filter, task domain.Task) bool {
	switch f := f.(type) {
	case nil, All:
		return true
	case StatusIs:
		return task.Status == f.Status
	case PriorityIs:
		return task.Priority == f.Priority
	case SearchText:
		needle := strings.ToLower(f.Text)
		return strings.Contains(strings.ToLower(task.Title), needle) ||
			strings.Contains(strings.ToLower(task.Description), needle)
	case OwnedBy:
		return task.OwnerID == f.OwnerID
	case And:
		return Matches(f.Left, task) && Matches(f.Right, task)
	default:
		return false
	}
}
