package tabular

import (
	"time"
)

// ReadableLayout is the layout of derived date columns.
const ReadableLayout = "2006-01-02 15:04:05"

// Derive returns a copy of t with column name appended, computed per row by fn.
func Derive(t Table, name string, fn func(t Table, i int) any) Table {
	out := Table{Schema: t.Schema.With(name), Rows: make([]Row, len(t.Rows))}
	for i, row := range t.Rows {
		r := make(Row, len(row), len(row)+1)
		copy(r, row)
		out.Rows[i] = append(r, fn(t, i))
	}
	return out
}

// UnixToReadable renders the unix-seconds column src as UTC "YYYY-MM-DD HH:MM:SS".
// Rows whose src is nil or not numeric get nil.
func UnixToReadable(src string) func(t Table, i int) any {
	return func(t Table, i int) any {
		secs, ok := ParseInt(t.Get(i, src))
		if !ok {
			return nil
		}
		return time.Unix(secs, 0).UTC().Format(ReadableLayout)
	}
}
