package sink

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_harvest/internal/engine/tabular"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

var unsafeName = regexp.MustCompile(`[^a-z0-9_\-]+`)

// CSV writes one file per batch into a directory. Within one sink a file
// belongs to the first batch name that claimed it; a different name that
// sanitizes to the same file gets a hash suffix instead of overwriting it.
type CSV struct {
	dir string

	mu     sync.Mutex
	owners map[string]string // file name -> batch name
}

// NewCSV returns a CSV sink rooted at dir.
func NewCSV(dir string) *CSV {
	return &CSV{dir: dir, owners: map[string]string{}}
}

// FileName turns a batch name into a safe lower-case file name.
func FileName(name string) string {
	n := unsafeName.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(n, "_") + ".csv"
}

// Path returns the file a batch named name is written to.
func (s *CSV) Path(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := FileName(name)
	if owner, taken := s.owners[file]; taken && owner != name {
		sum := sha256.Sum256([]byte(name))
		file = fmt.Sprintf("%s_%x.csv", strings.TrimSuffix(file, ".csv"), sum[:4])
	}
	s.owners[file] = name
	return filepath.Join(s.dir, file)
}

// Write replaces the batch's file with a header row and one line per row.
// Empty tables still get a header.
func (s *CSV) Write(_ context.Context, b Batch) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("csv: mkdir %s: %w", s.dir, err)
	}
	path := s.Path(b.Name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(b.Table.Schema); err != nil {
		return fmt.Errorf("csv: write header %s: %w", path, err)
	}
	rec := make([]string, len(b.Table.Schema))
	for _, row := range b.Table.Rows {
		for i, v := range row {
			rec[i] = tabular.FormatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("csv: write row %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush %s: %w", path, err)
	}
	return f.Close()
}

// Close is a no-op; files are closed per batch.
func (s *CSV) Close() error { return nil }
