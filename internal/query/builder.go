package query

import (
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// Params describes the optional constraints a client may put on a task listing.
// Empty fields impose no constraint.
type Params struct {
	Search   string
	Status   string
	Priority string
}

// Build translates params into a Filter scoped to ownerID. Status and priority
// become exact matches and are passed through unvalidated, so an unknown value
// simply matches nothing. A zero ownerID leaves the result unscoped.
func Build(ownerID uuid.UUID, p Params) Filter {
	var parts []Filter

	if ownerID != uuid.Nil {
		parts = append(parts, OwnedBy{OwnerID: ownerID})
	}
	if p.Status != "" {
		parts = append(parts, StatusIs{Status: domain.TaskStatus(p.Status)})
	}
	if p.Priority != "" {
		parts = append(parts, PriorityIs{Priority: domain.TaskPriority(p.Priority)})
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		parts = append(parts, SearchText{Text: s})
	}

	return Conjoin(parts...)
}
