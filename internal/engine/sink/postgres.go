package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres bulk-loads every batch into a table named after its kind.
type Postgres struct {
	pool  *pgxpool.Pool
	runID string
}

// OpenPostgres connects to databaseURL.
func OpenPostgres(ctx context.Context, databaseURL, runID string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	config.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Postgres{pool: pool, runID: runID}, nil
}

// ddl returns the statements that create the kind table and its columns.
func ddl(table string, b Batch) []string {
	ident := pgx.Identifier{table}.Sanitize()
	stmts := []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id  TEXT NOT NULL,
		target  TEXT NOT NULL,
		row_num INTEGER NOT NULL
	)`, ident)}
	for _, col := range b.Table.Schema {
		stmts = append(stmts, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT`,
			ident, pgx.Identifier{col}.Sanitize()))
	}
	return stmts
}

// copyRows converts batch rows to COPY input; cells become text, nil stays NULL.
func copyRows(runID string, b Batch) (columns []string, rows [][]any) {
	columns = append([]string{"run_id", "target", "row_num"}, b.Table.Schema...)
	rows = make([][]any, len(b.Table.Rows))
	for i, row := range b.Table.Rows {
		args := cellArgs(runID, b.Target, i, row)
		args[2] = int32(i)
		rows[i] = args
	}
	return columns, rows
}

// Write creates the table if needed and copies the rows in one transaction.
func (p *Postgres) Write(ctx context.Context, b Batch) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, stmt := range ddl(b.Kind, b) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: %s ddl: %w", b.Kind, err)
		}
	}

	columns, rows := copyRows(p.runID, b)
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{b.Kind}, columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("postgres: copy %s: %w", b.Kind, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
