package tabular

import (
	"encoding/json"
	"math"
	"strconv"
)

// SummaryRow holds per-target totals. Columns fixes the order of Sums.
type SummaryRow struct {
	Target   string           `json:"target"`
	RowCount int              `json:"row_count"`
	Columns  []string         `json:"-"`
	Sums     map[string]int64 `json:"sums"`
}

// Summarize counts rows and sums each numeric column, treating nil and
// non-numeric values as zero. Every requested column is present in Sums,
// also for an empty table.
func Summarize(target string, t Table, numeric []string) SummaryRow {
	s := SummaryRow{
		Target:   target,
		RowCount: t.Len(),
		Columns:  append([]string(nil), numeric...),
		Sums:     make(map[string]int64, len(numeric)),
	}
	for _, col := range numeric {
		s.Sums[col] = 0
		j := t.Schema.Index(col)
		if j < 0 {
			continue
		}
		for _, row := range t.Rows {
			s.Sums[col] += AsInt(row[j])
		}
	}
	return s
}

// AsInt converts a decoded JSON value to an integer. Fractions are truncated;
// nil and non-numeric values give zero.
func AsInt(v any) int64 {
	n, _ := ParseInt(v)
	return n
}

// ParseInt is AsInt that also reports whether v was numeric.
func ParseInt(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil {
			return truncate(f)
		}
	case float64:
		return truncate(x)
	case int:
		return int64(x), true
	case int64:
		return x, true
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return truncate(f)
		}
	}
	return 0, false
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
