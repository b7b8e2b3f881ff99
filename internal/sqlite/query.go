package sqlite

import "strings"

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so each entity
// needs a single hydrate function.
type rowScanner interface {
	Scan(dest ...any) error
}

// filterBuilder composes WHERE clauses from the optional fields of a query
// filter. Every added condition ANDs with the rest; zero-value fields add
// nothing, so filters compose freely and an empty filter selects the whole
// table.
type filterBuilder struct {
	conditions []string
	args       []any
}

// eq adds an equality condition unless value is empty.
func (f *filterBuilder) eq(column, value string) {
	if value == "" {
		return
	}
	f.conditions = append(f.conditions, column+" = ?")
	f.args = append(f.args, value)
}

// eqInt adds an equality condition on an integer column unless value is nil.
func (f *filterBuilder) eqInt(column string, value *int64) {
	if value == nil {
		return
	}
	f.conditions = append(f.conditions, column+" = ?")
	f.args = append(f.args, *value)
}

// in adds a membership condition unless values is empty.
func (f *filterBuilder) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	placeholders := strings.Repeat("?, ", len(values))
	f.conditions = append(f.conditions, column+" IN ("+placeholders[:len(placeholders)-2]+")")
	for _, v := range values {
		f.args = append(f.args, v)
	}
}

// containsFold adds a case-insensitive substring condition unless value is
// empty.
func (f *filterBuilder) containsFold(column, value string) {
	if value == "" {
		return
	}
	f.conditions = append(f.conditions, "LOWER("+column+") LIKE ?")
	f.args = append(f.args, "%"+strings.ToLower(value)+"%")
}

// where renders the accumulated conditions, or "" when none were added.
func (f *filterBuilder) where() string {
	if len(f.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conditions, " AND ")
}
