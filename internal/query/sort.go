package query

import "strings"

// DefaultSort lists tasks newest first.
const DefaultSort = "-createdAt"

// SortField orders results by one task attribute.
type SortField struct {
	Field string
	Desc  bool
}

// Sortable task attributes, keyed by their JSON name.
const (
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "dueDate"
	FieldPriority    = "priority"
	FieldStatus      = "status"
)

var sortable = map[string]bool{
	FieldCreatedAt:   true,
	FieldUpdatedAt:   true,
	FieldTitle:       true,
	FieldDescription: true,
	FieldDueDate:     true,
	FieldPriority:    true,
	FieldStatus:      true,
}

// ParseSort parses a comma-joined sort list such as "-priority,title".
// A leading "-" sorts descending. The "field-asc" and "field-desc" forms are
// accepted as well. Fields are kept in the order given; unknown fields are
// dropped. An empty expression yields DefaultSort.
func ParseSort(expr string) []SortField {
	if strings.TrimSpace(expr) == "" {
		expr = DefaultSort
	}

	var fields []SortField
	seen := make(map[string]bool)
	for _, raw := range strings.Split(expr, ",") {
		sf, ok := parseSortField(strings.TrimSpace(raw))
		if !ok || seen[sf.Field] {
			continue
		}
		seen[sf.Field] = true
		fields = append(fields, sf)
	}
	return fields
}

func parseSortField(raw string) (SortField, bool) {
	var sf SortField
	switch {
	case strings.HasPrefix(raw, "-"):
		sf = SortField{Field: raw[1:], Desc: true}
	case strings.HasPrefix(raw, "+"):
		sf = SortField{Field: raw[1:]}
	case strings.HasSuffix(raw, "-desc"):
		sf = SortField{Field: strings.TrimSuffix(raw, "-desc"), Desc: true}
	case strings.HasSuffix(raw, "-asc"):
		sf = SortField{Field: strings.TrimSuffix(raw, "-asc")}
	default:
		sf = SortField{Field: raw}
	}
	return sf, sortable[sf.Field]
}
