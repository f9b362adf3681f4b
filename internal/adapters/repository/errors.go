package repository

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for store errors.
var (
	ErrInvalidRange = errors.New("invalid date range: start after end")
	ErrImport       = errors.New("import failed")
)

// RowError is one rejected CSV row.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// ImportError lists every row a CSV import rejected. Accepted rows are
// still loaded.
type ImportError struct {
	Source string
	Rows   []RowError
}

func (e *ImportError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, r.Error())
	}
	return fmt.Sprintf("%s: %d rejected rows: %s", e.Source, len(e.Rows), strings.Join(parts, "; "))
}

func (e *ImportError) Unwrap() error { return ErrImport }
