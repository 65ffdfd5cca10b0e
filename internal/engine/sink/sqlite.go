package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"

	_ "modernc.org/sqlite"
)

// SQLite stores every batch in a table named after its kind, tagged with the
// run id and target. Cell values are stored as text; nil stays NULL.
type SQLite struct {
	db    *sql.DB
	runID string
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path, runID string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	return &SQLite{db: db, runID: runID}, nil
}

// DB exposes the handle for read-back.
func (s *SQLite) DB() *sql.DB { return s.db }

func quoteSQLite(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// ensureTable creates the kind table and adds any schema column it lacks.
func (s *SQLite) ensureTable(ctx context.Context, tx *sql.Tx, table string, schema tabular.Schema) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id  TEXT NOT NULL,
		target  TEXT NOT NULL,
		row_num INTEGER NOT NULL
	)`, quoteSQLite(table)))
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteSQLite(table)))
	if err != nil {
		return fmt.Errorf("table info: %w", err)
	}
	have := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("scan table info: %w", err)
		}
		have[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("table info: %w", err)
	}

	for _, col := range schema {
		if have[col] {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT`,
			quoteSQLite(table), quoteSQLite(col))); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	return nil
}

// Write inserts all rows of b in one transaction.
func (s *SQLite) Write(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.ensureTable(ctx, tx, b.Kind, b.Table.Schema); err != nil {
		return fmt.Errorf("sqlite: %s: %w", b.Kind, err)
	}

	cols := []string{"run_id", "target", "row_num"}
	for _, c := range b.Table.Schema {
		cols = append(cols, quoteSQLite(c))
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteSQLite(b.Kind), strings.Join(cols, ", "), marks))
	if err != nil {
		return fmt.Errorf("sqlite: prepare %s: %w", b.Kind, err)
	}
	defer stmt.Close()

	for i, row := range b.Table.Rows {
		if _, err := stmt.ExecContext(ctx, cellArgs(s.runID, b.Target, i, row)...); err != nil {
			return fmt.Errorf("sqlite: insert %s row %d: %w", b.Kind, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// cellArgs builds one insert row: run id, target, row number, then cells as text.
func cellArgs(runID, target string, i int, row tabular.Row) []any {
	args := make([]any, 0, len(row)+3)
	args = append(args, runID, target, i)
	for _, v := range row {
		if v == nil {
			args = append(args, nil)
			continue
		}
		args = append(args, tabular.FormatCell(v))
	}
	return args
}
