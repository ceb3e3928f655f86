package csvrows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrMalformedRow is returned when a row is narrower than a reader requires.
	ErrMalformedRow = errors.New("malformed row")
	// ErrMissingParentContext is returned when a child row has no container to attach to.
	ErrMissingParentContext = errors.New("missing parent context")
)

// RowError locates a row-level failure in the input file.
type RowError struct {
	Line   int // 1-based, header is line 1
	Column int // offending column index, -1 if not column-specific
	Err    error
}

func (e *RowError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Malformed builds a RowError for a row missing column col.
func Malformed(line, col int) *RowError {
	return &RowError{Line: line, Column: col, Err: ErrMalformedRow}
}

// MissingParent builds a RowError for a row with no container to attach to.
func MissingParent(line int, what string) *RowError {
	return &RowError{Line: line, Column: -1, Err: fmt.Errorf("%w: %s", ErrMissingParentContext, what)}
}

// NewReader returns a csv.Reader configured like the Excel dialect: comma
// separated, double-quote quoting, ragged rows allowed.
func NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// Each streams every row after the header to fn. Blank lines are not rows,
// so the first non-blank line is the header. Iteration stops at the first
// error returned by the reader or by fn.
func Each(r io.Reader, fn func(line int, row []string) error) error {
	reader := NewReader(r)
	for i := 0; ; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading csv: %w", err)
		}
		if i == 0 {
			continue
		}
		line, _ := reader.FieldPos(0)
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

// EachFile opens path and streams its rows to fn. The file is closed on
// every return path.
func EachFile(path string, fn func(line int, row []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return Each(f, fn)
}
