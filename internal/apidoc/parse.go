package apidoc

import (
	"fmt"
	"io"

	"github.com/jcdickinson/apiperms/internal/csvrows"
)

// Column layout of the API docs table. Column 0 holds library info and is
// never read.
const (
	colPackage = 1
	colClass   = 2
	colMethod  = 3
)

// ReadAPIDocs parses the API docs table at path.
func ReadAPIDocs(path string) ([]*Package, error) {
	b := &builder{packages: []*Package{}}
	if err := csvrows.EachFile(path, b.row); err != nil {
		return nil, fmt.Errorf("reading api docs: %w", err)
	}
	return b.packages, nil
}

// ParseAPIDocs builds the package tree from an API docs table. The first row
// is skipped. Which column is the first non-empty one of 1, 2 or 3 decides
// whether a row opens a package, a class or a method.
func ParseAPIDocs(r io.Reader) ([]*Package, error) {
	b := &builder{packages: []*Package{}}
	if err := csvrows.Each(r, b.row); err != nil {
		return nil, fmt.Errorf("reading api docs: %w", err)
	}
	return b.packages, nil
}

// builder holds the append targets for one parse.
type builder struct {
	packages []*Package
	pkg      *Package
	class    *Class
}

func (b *builder) row(line int, row []string) error {
	switch {
	case has(row, colPackage):
		b.pkg = NewPackage(row[colPackage], cell(row, colPackage+1))
		b.packages = append(b.packages, b.pkg)

	case has(row, colClass):
		if b.pkg == nil {
			return csvrows.MissingParent(line, fmt.Sprintf("class %q before any package", row[colClass]))
		}
		b.class = NewClass(row[colClass], cell(row, colClass+1))
		b.pkg.Classes = append(b.pkg.Classes, b.class)

	case has(row, colMethod):
		if b.class == nil {
			return csvrows.MissingParent(line, fmt.Sprintf("method %q before any class", row[colMethod]))
		}
		// The method description is taken from column 2, and only when the
		// row reaches column 4.
		var desc string
		if len(row) > colMethod+1 {
			desc = row[colClass]
		}
		b.class.Methods = append(b.class.Methods, NewMethod(row[colMethod], desc))
	}
	return nil
}

func has(row []string, col int) bool {
	return len(row) > col && row[col] != ""
}

func cell(row []string, col int) string {
	if len(row) > col {
		return row[col]
	}
	return ""
}
