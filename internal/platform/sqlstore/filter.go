package sqlstore

import (
	"fmt"
	"strings"

	"github.com/phrazzld/taskman-api/internal/query"
	"github.com/phrazzld/taskman-api/internal/store"
)

// nullableColumns hold optional task fields. Rows missing them sort last in
// either direction.
var nullableColumns = map[string]bool{
	"due_date": true,
	"priority": true,
}

// sortColumns maps sortable task fields to their columns.
var sortColumns = map[string]string{
	query.FieldCreatedAt:   "created_at",
	query.FieldUpdatedAt:   "updated_at",
	query.FieldTitle:       "title",
	query.FieldDescription: "description",
	query.FieldDueDate:     "due_date",
	query.FieldPriority:    "priority",
	query.FieldStatus:      "status",
}

// whereClause translates f into a SQL predicate for d using "?" placeholders.
// An unknown Filter variant is an error rather than a silent match-all.
func whereClause(d Dialect, f query.Filter) (string, []any, error) {
	switch f := f.(type) {
	case nil, query.All:
		return "1 = 1", nil, nil
	case query.StatusIs:
		return "status = ?", []any{string(f.Status)}, nil
	case query.PriorityIs:
		return "priority = ?", []any{string(f.Priority)}, nil
	case query.SearchText:
		pattern := "%" + escapeLike(strings.ToLower(f.Text)) + "%"
		return "(" + d.lower("title") + ` LIKE ? ESCAPE '\' OR ` + d.lower("description") + ` LIKE ? ESCAPE '\')`,
			[]any{pattern, pattern}, nil
	case query.OwnedBy:
		return "owner_id = ?", []any{f.OwnerID.String()}, nil
	case query.And:
		left, largs, err := whereClause(d, f.Left)
		if err != nil {
			return "", nil, err
		}
		right, rargs, err := whereClause(d, f.Right)
		if err != nil {
			return "", nil, err
		}
		return "(" + left + " AND " + right + ")", append(largs, rargs...), nil
	default:
		return "", nil, fmt.Errorf("%w: %T", store.ErrUnsupportedFilter, f)
	}
}

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// orderClause renders sort keys, always ending with id so pages are stable.
func orderClause(fields []query.SortField) string {
	parts := make([]string, 0, len(fields)+1)
	for _, sf := range fields {
		col, ok := sortColumns[sf.Field]
		if !ok {
			continue
		}
		part := col + " ASC"
		if sf.Desc {
			part = col + " DESC"
		}
		if nullableColumns[col] {
			part += " NULLS LAST"
		}
		parts = append(parts, part)
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", ")
}
