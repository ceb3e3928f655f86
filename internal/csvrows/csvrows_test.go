package csvrows

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func collect(t *testing.T, input string) ([]int, [][]string) {
	t.Helper()
	var lines []int
	var rows [][]string
	err := Each(strings.NewReader(input), func(line int, row []string) error {
		lines = append(lines, line)
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return lines, rows
}

func TestEach_SkipsHeader(t *testing.T) {
	t.Parallel()
	lines, rows := collect(t, "h1,h2\na,b\nc,d\n")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "a" || rows[1][1] != "d" {
		t.Errorf("unexpected rows: %v", rows)
	}
	if lines[0] != 2 || lines[1] != 3 {
		t.Errorf("expected lines [2 3], got %v", lines)
	}
}

// Blank lines are not rows: they never reach the callback, a leading blank
// line does not become the header, and line numbers still count them.
func TestEach_BlankLinesSkipped(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     string
		wantLines []int
		wantFirst []string
	}{
		{"between rows", "h1,h2\na,b\n\nc,d\n", []int{2, 4}, []string{"a", "b"}},
		{"before header", "\nh1,h2\na,b\n", []int{3}, []string{"a", "b"}},
		{"trailing", "h1,h2\na,b\n\n\n", []int{2}, []string{"a", "b"}},
		{"crlf", "h1,h2\r\n\r\na,b\r\n", []int{3}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, rows := collect(t, tt.input)
			if len(lines) != len(tt.wantLines) {
				t.Fatalf("got lines %v, want %v", lines, tt.wantLines)
			}
			for i := range lines {
				if lines[i] != tt.wantLines[i] {
					t.Errorf("got lines %v, want %v", lines, tt.wantLines)
				}
			}
			if len(rows[0]) != len(tt.wantFirst) || rows[0][0] != tt.wantFirst[0] || rows[0][1] != tt.wantFirst[1] {
				t.Errorf("got first row %q, want %q", rows[0], tt.wantFirst)
			}
		})
	}
}

func TestEach_RaggedRows(t *testing.T) {
	t.Parallel()
	_, rows := collect(t, "lib,,,\n,pkg\n,,Cls,desc,extra\n")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if len(rows[0]) != 2 || len(rows[1]) != 5 {
		t.Errorf("unexpected widths: %d, %d", len(rows[0]), len(rows[1]))
	}
}

func TestEach_ExcelQuoting(t *testing.T) {
	t.Parallel()
	_, rows := collect(t, "header\r\n\"a, b\",\"say \"\"hi\"\"\"\r\n")
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][0] != "a, b" {
		t.Errorf("got %q, want %q", rows[0][0], "a, b")
	}
	if rows[0][1] != `say "hi"` {
		t.Errorf("got %q, want %q", rows[0][1], `say "hi"`)
	}
}

func TestEach_EmptyInput(t *testing.T) {
	t.Parallel()
	_, rows := collect(t, "")
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestEach_CallbackErrorStops(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Each(strings.NewReader("h\na\nb\nc\n"), func(line int, row []string) error {
		calls++
		return Malformed(line, 2)
	})
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected iteration to stop after 1 call, got %d", calls)
	}
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected *RowError, got %T", err)
	}
	if rowErr.Line != 2 || rowErr.Column != 2 {
		t.Errorf("got line %d column %d, want 2/2", rowErr.Line, rowErr.Column)
	}
}

func TestRowError_Messages(t *testing.T) {
	t.Parallel()
	if got := Malformed(4, 2).Error(); got != "line 4, column 2: malformed row" {
		t.Errorf("unexpected message %q", got)
	}
	err := MissingParent(3, "method row before any class")
	if !errors.Is(err, ErrMissingParentContext) {
		t.Error("expected errors.Is to match ErrMissingParentContext")
	}
	if got := err.Error(); got != "line 3: missing parent context: method row before any class" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestEachFile_Missing(t *testing.T) {
	t.Parallel()
	err := EachFile(filepath.Join(t.TempDir(), "nope.csv"), func(int, []string) error { return nil })
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
