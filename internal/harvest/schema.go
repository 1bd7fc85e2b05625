package harvest

import (
	"strconv"

	"github.com/law-makers/payout-harvest/pkg/models"
)

// Schema is the ordered column list of a run. It is fixed by the first page
// that yields data and never changes afterwards.
type Schema struct {
	columns []string
	frozen  bool
}

// Frozen reports whether the schema has been established.
func (s *Schema) Frozen() bool {
	return s.frozen
}

// Columns returns a copy of the column names.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Width is the number of columns every normalized row has.
func (s *Schema) Width() int {
	return len(s.columns)
}

// Resolve establishes the schema from result if it is not frozen yet.
// Headers are taken verbatim; without headers the columns are named
// col_1..col_k after the width of the first row. It returns true only for
// the call that froze the schema.
func (s *Schema) Resolve(result models.PageResult) bool {
	if s.frozen || result.Empty() {
		return false
	}

	var cols []string
	switch {
	case len(result.Headers) > 0:
		cols = append([]string(nil), result.Headers...)
	case len(result.Rows) > 0:
		cols = SyntheticColumns(len(result.Rows[0]))
	}
	if len(cols) == 0 {
		return false
	}

	s.columns = cols
	s.frozen = true
	return true
}

// Normalize fits row to the schema width: wider rows are truncated, shorter
// ones padded on the right with empty strings.
func (s *Schema) Normalize(row []string) []string {
	out := make([]string, len(s.columns))
	copy(out, row)
	return out
}

// SyntheticColumns returns col_1..col_k.
func SyntheticColumns(k int) []string {
	cols := make([]string, k)
	for i := range cols {
		cols[i] = "col_" + strconv.Itoa(i+1)
	}
	return cols
}
