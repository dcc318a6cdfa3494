package query

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestConjoin(t *testing.T) {
	t.Parallel()

	status := StatusIs{Status: domain.StatusTodo}
	search := SearchText{Text: "report"}

	tests := []struct {
		name    string
		filters []Filter
		want    Filter
	}{
		{name: "no filters", filters: nil, want: All{}},
		{name: "only all and nil", filters: []Filter{All{}, nil, All{}}, want: All{}},
		{name: "single filter", filters: []Filter{status}, want: status},
		{name: "all is dropped", filters: []Filter{All{}, status}, want: status},
		{
			name:    "left-nested conjunction",
			filters: []Filter{status, All{}, search},
			want:    And{Left: status, Right: search},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Conjoin(tt.filters...))
		})
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	owner := uuid.New()

	tests := []struct {
		name   string
		owner  uuid.UUID
		params Params
		want   Filter
	}{
		{name: "nothing", owner: uuid.Nil, want: All{}},
		{name: "owner only", owner: owner, want: OwnedBy{OwnerID: owner}},
		{
			name:   "status only",
			params: Params{Status: "completed"},
			want:   StatusIs{Status: domain.StatusCompleted},
		},
		{
			name:   "blank search ignored",
			params: Params{Search: "   "},
			want:   All{},
		},
		{
			name:   "unknown status passes through",
			params: Params{Status: "archived"},
			want:   StatusIs{Status: domain.TaskStatus("archived")},
		},
		{
			name:   "everything",
			owner:  owner,
			params: Params{Search: " Report ", Status: "todo", Priority: "high"},
			want: And{
				Left: And{
					Left:  And{Left: OwnedBy{OwnerID: owner}, Right: StatusIs{Status: domain.StatusTodo}},
					Right: PriorityIs{Priority: domain.PriorityHigh},
				},
				Right: SearchText{Text: "Report"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Build(tt.owner, tt.params))
		})
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	task := domain.Task{
		ID:          "t1",
		OwnerID:     owner,
		Title:       "Write Quarterly Report",
		Description: "numbers for 50% of the team",
		Status:      domain.StatusInProgress,
		Priority:    domain.PriorityMedium,
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "nil", filter: nil, want: true},
		{name: "all", filter: All{}, want: true},
		{name: "status match", filter: StatusIs{Status: domain.StatusInProgress}, want: true},
		{name: "status mismatch", filter: StatusIs{Status: domain.StatusTodo}, want: false},
		{name: "priority match", filter: PriorityIs{Priority: domain.PriorityMedium}, want: true},
		{name: "priority mismatch", filter: PriorityIs{Priority: domain.PriorityLow}, want: false},
		{name: "search title ignores case", filter: SearchText{Text: "quarterly"}, want: true},
		{name: "search description", filter: SearchText{Text: "TEAM"}, want: true},
		{name: "search is literal", filter: SearchText{Text: "50%"}, want: true},
		{name: "search regex metacharacters", filter: SearchText{Text: "Write.*Report"}, want: false},
		{name: "owner match", filter: OwnedBy{OwnerID: owner}, want: true},
		{name: "owner mismatch", filter: OwnedBy{OwnerID: uuid.New()}, want: false},
		{
			name:   "and both true",
			filter: And{Left: OwnedBy{OwnerID: owner}, Right: SearchText{Text: "report"}},
			want:   true,
		},
		{
			name:   "and one false",
			filter: And{Left: OwnedBy{OwnerID: owner}, Right: StatusIs{Status: domain.StatusCompleted}},
			want:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Matches(tt.filter, task))
		})
	}
}
