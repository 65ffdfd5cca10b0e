// Package sink writes harvested tables to flat files and databases.
package sink

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/anatolykoptev/go_harvest/internal/engine"
	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
)

// Batch is one table bound for output.
type Batch struct {
	Name   string // file base name, e.g. "hashtag_videos_freepalestine"
	Kind   string // table kind, e.g. "videos", "hashtag_videos_summary"
	Target string // harvest target; empty for summaries
	Table  tabular.Table
}

// Sink persists batches.
type Sink interface {
	Write(ctx context.Context, b Batch) error
	Close() error
}

// Multi fans every batch out to several sinks. A failing sink does not stop
// the others; all errors are joined.
type Multi []Sink

// Write writes b to every sink.
func (m Multi) Write(ctx context.Context, b Batch) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, b); err != nil {
			engine.IncrSinkErrors()
			slog.Warn("sink write failed", slog.String("name", b.Name), slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunDir is the directory CSV files of run runID are written to.
func RunDir(runID string) string {
	return filepath.Join(engine.Cfg.OutputDir, runID)
}

// Open builds the sinks enabled in the engine config: CSV files under
// RunDir(runID) always, SQLite when SQLitePath is set, Postgres when
// DatabaseURL is set.
func Open(ctx context.Context, runID string) (Multi, error) {
	c := engine.Cfg
	m := Multi{NewCSV(RunDir(runID))}

	if c.SQLitePath != "" {
		s, err := OpenSQLite(c.SQLitePath, runID)
		if err != nil {
			m.Close()
			return nil, err
		}
		m = append(m, s)
	}
	if c.DatabaseURL != "" {
		p, err := OpenPostgres(ctx, c.DatabaseURL, runID)
		if err != nil {
			m.Close()
			return nil, err
		}
		m = append(m, p)
	}
	return m, nil
}
