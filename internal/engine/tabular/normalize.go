package tabular

// Filter decides whether a raw record becomes a row.
type Filter func(rec map[string]any) bool

// KeepAll accepts every record.
func KeepAll(map[string]any) bool { return true }

// NonEmptyText accepts records whose field is a non-empty string.
func NonEmptyText(field string) Filter {
	return func(rec map[string]any) bool {
		s, ok := rec[field].(string)
		return ok && s != ""
	}
}

// Normalize projects records onto schema in input order. Rejected records are
// dropped whole, absent columns become nil and unknown fields are discarded.
// It returns the table and the number of rejected records.
func Normalize(records []map[string]any, schema Schema, keep Filter) (Table, int) {
	if keep == nil {
		keep = KeepAll
	}
	t := Table{Schema: schema, Rows: make([]Row, 0, len(records))}
	rejected := 0
	for _, rec := range records {
		if !keep(rec) {
			rejected++
			continue
		}
		row := make(Row, len(schema))
		for i, col := range schema {
			row[i] = rec[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, rejected
}
