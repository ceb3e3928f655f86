package apidoc

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jcdickinson/apiperms/internal/csvrows"
)

const sampleDocs = `lib,,,
,pkg.net,"networking pkg",
,,NetClient,"client class"
,,,connect,"opens connection"
`

func TestParseAPIDocs_Example(t *testing.T) {
	t.Parallel()
	pkgs, err := ParseAPIDocs(strings.NewReader(sampleDocs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("expected 1 package, got %d", len(pkgs))
	}
	pkg := pkgs[0]
	if pkg.Name != "pkg.net" || pkg.Description != "networking pkg" {
		t.Errorf("package: got %q/%q", pkg.Name, pkg.Description)
	}
	if len(pkg.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(pkg.Classes))
	}
	cls := pkg.Classes[0]
	if cls.Name != "NetClient" || cls.Description != "client class" {
		t.Errorf("class: got %q/%q", cls.Name, cls.Description)
	}
	if len(cls.Methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(cls.Methods))
	}
	m := cls.Methods[0]
	if m.Name != "connect" {
		t.Errorf("method name: got %q", m.Name)
	}
	// Column 2 of the method row is empty.
	if m.Description != "" {
		t.Errorf("method description: got %q, want empty", m.Description)
	}
}

func TestParseAPIDocs_MethodDescriptionFromColumnTwo(t *testing.T) {
	t.Parallel()
	input := "lib\n,p\n,,C\n,,,m1,ignored\n,,,m2\n"
	pkgs, err := ParseAPIDocs(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	methods := pkgs[0].Classes[0].Methods
	if len(methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(methods))
	}
	if methods[0].Description != "" {
		t.Errorf("m1: column 4 must not be used, got %q", methods[0].Description)
	}
	if methods[1].Description != "" {
		t.Errorf("m2: got %q, want empty", methods[1].Description)
	}
}

func TestParseAPIDocs_RowPriority(t *testing.T) {
	t.Parallel()
	input := "lib\n,pkg.a,ClassLooking,methodLooking\n"
	pkgs, err := ParseAPIDocs(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("expected 1 package, got %d", len(pkgs))
	}
	if pkgs[0].Name != "pkg.a" || pkgs[0].Description != "ClassLooking" {
		t.Errorf("got %q/%q", pkgs[0].Name, pkgs[0].Description)
	}
	if len(pkgs[0].Classes) != 0 {
		t.Errorf("row must not produce a class, got %d", len(pkgs[0].Classes))
	}
}

func TestParseAPIDocs_Nesting(t *testing.T) {
	t.Parallel()
	input := strings.Join([]string{
		"lib",
		",android.app,App package",
		",,Activity,An activity",
		",,,finish,x",
		",,,recreate,x",
		",,Service,A service",
		",,,stopSelf,x",
		",android.net,Net package",
		",,Uri,A URI",
		",,,parse,x",
		"",
	}, "\n")
	pkgs, err := ParseAPIDocs(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]map[string][]string{
		"android.app": {"Activity": {"finish", "recreate"}, "Service": {"stopSelf"}},
		"android.net": {"Uri": {"parse"}},
	}
	if len(pkgs) != len(want) {
		t.Fatalf("expected %d packages, got %d", len(want), len(pkgs))
	}
	for _, p := range pkgs {
		classes := want[p.Name]
		if len(p.Classes) != len(classes) {
			t.Errorf("%s: expected %d classes, got %d", p.Name, len(classes), len(p.Classes))
			continue
		}
		for _, c := range p.Classes {
			var names []string
			for _, m := range c.Methods {
				names = append(names, m.Name)
			}
			if !reflect.DeepEqual(names, classes[c.Name]) {
				t.Errorf("%s.%s: got methods %v, want %v", p.Name, c.Name, names, classes[c.Name])
			}
		}
	}
}

func TestParseAPIDocs_ClassCarriesAcrossPackages(t *testing.T) {
	t.Parallel()
	input := "lib\n,p1\n,,C1\n,p2\n,,,orphan,x\n"
	pkgs, err := ParseAPIDocs(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs[1].Classes) != 0 {
		t.Errorf("p2 should have no classes, got %d", len(pkgs[1].Classes))
	}
	if got := pkgs[0].Classes[0].Methods; len(got) != 1 || got[0].Name != "orphan" {
		t.Errorf("method should attach to the most recent class C1, got %v", got)
	}
}

func TestParseAPIDocs_SkipsEmptyRows(t *testing.T) {
	t.Parallel()
	input := "lib\n,p\n,,,,\n,\n,,C\n"
	pkgs, err := ParseAPIDocs(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 || len(pkgs[0].Classes) != 1 {
		t.Errorf("unexpected tree:\n%s", Render(pkgs))
	}
}

func TestParseAPIDocs_MissingParent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"method first", "lib\n,,,connect,x\n", 2},
		{"class first", "lib\n,,NetClient\n", 2},
		{"method before class", "lib\n,pkg\n,,,connect\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAPIDocs(strings.NewReader(tt.input))
			if !errors.Is(err, csvrows.ErrMissingParentContext) {
				t.Fatalf("expected ErrMissingParentContext, got %v", err)
			}
			var rowErr *csvrows.RowError
			if !errors.As(err, &rowErr) || rowErr.Line != tt.line {
				t.Errorf("expected row error on line %d, got %v", tt.line, err)
			}
		})
	}
}

func TestParseAPIDocs_Idempotent(t *testing.T) {
	t.Parallel()
	a, err := ParseAPIDocs(strings.NewReader(sampleDocs))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseAPIDocs(strings.NewReader(sampleDocs))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("parsing the same input twice produced different trees")
	}
}

func TestParseAPIDocs_FreshSlices(t *testing.T) {
	t.Parallel()
	pkgs, err := ParseAPIDocs(strings.NewReader("lib\n,p1\n,,C1\n,p2\n,,C2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs[0].Classes) != 1 || len(pkgs[1].Classes) != 1 {
		t.Fatalf("classes leaked between packages: %d, %d", len(pkgs[0].Classes), len(pkgs[1].Classes))
	}
	for _, p := range pkgs {
		if p.Permissions == nil || len(p.Permissions) != 0 {
			t.Errorf("%s: expected empty, non-nil permissions", p.Name)
		}
	}
}

func TestReadAPIDocs_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "docs.csv")
	if err := os.WriteFile(path, []byte(sampleDocs), 0644); err != nil {
		t.Fatal(err)
	}
	pkgs, err := ReadAPIDocs(path)
	if err != nil {
		t.Fatal(err)
	}
	p, c, m := Counts(pkgs)
	if p != 1 || c != 1 || m != 1 {
		t.Errorf("got counts %d/%d/%d, want 1/1/1", p, c, m)
	}
}
