// Package tabular folds variable-shape API records into fixed-column tables
// and reduces them to per-target totals.
package tabular

import (
	"encoding/json"
	"strconv"
)

// Schema is the ordered column list of one record kind. Treat as immutable.
type Schema []string

// Index returns the position of col, or -1.
func (s Schema) Index(col string) int {
	for i, c := range s {
		if c == col {
			return i
		}
	}
	return -1
}

// With returns a copy of s with extra columns appended.
func (s Schema) With(cols ...string) Schema {
	out := make(Schema, 0, len(s)+len(cols))
	out = append(out, s...)
	return append(out, cols...)
}

// Row holds one value per schema column, in schema order. Absent values are nil.
type Row []any

// Table is a schema plus rows that conform to it exactly.
type Table struct {
	Schema Schema
	Rows   []Row
}

// Get returns the value of col in row i, or nil when col is not in the schema.
func (t Table) Get(i int, col string) any {
	j := t.Schema.Index(col)
	if j < 0 {
		return nil
	}
	return t.Rows[i][j]
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// FormatCell renders a value for flat output. nil renders as the empty string;
// lists and objects render as JSON.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
