package perms

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jcdickinson/apiperms/internal/csvrows"
)

const (
	colName        = 0
	colDescription = 2
)

// ReadPermissions parses the permission table at path.
func ReadPermissions(path string) (*Set, error) {
	set := NewSet()
	if err := csvrows.EachFile(path, rowHandler(set)); err != nil {
		return nil, fmt.Errorf("reading permissions: %w", err)
	}
	addGroups(set)
	return set, nil
}

// ParsePermissions parses a permission table: a header row, then rows whose
// column 0 is the permission name and column 2 the protection description.
// The fixed group permissions are added after the table.
func ParsePermissions(r io.Reader) (*Set, error) {
	set := NewSet()
	if err := csvrows.Each(r, rowHandler(set)); err != nil {
		return nil, fmt.Errorf("reading permissions: %w", err)
	}
	addGroups(set)
	return set, nil
}

func rowHandler(set *Set) func(line int, row []string) error {
	return func(line int, row []string) error {
		if len(row) <= colDescription {
			return csvrows.Malformed(line, colDescription)
		}
		p := Permission{
			Name:  strings.TrimSpace(row[colName]),
			Level: Classify(row[colDescription]),
		}
		if set.Add(p) {
			slog.Debug("duplicate permission row", "name", p.Name, "line", line)
		}
		return nil
	}
}

func addGroups(set *Set) {
	for _, g := range GroupPermissions() {
		if prev, ok := set.Get(g.Name); ok && !prev.IsGroup {
			slog.Debug("group permission overrides file entry", "name", g.Name, "level", prev.Level)
		}
		set.Add(g)
	}
}
