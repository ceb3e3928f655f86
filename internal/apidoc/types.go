package apidoc

import (
	"strings"

	"github.com/jcdickinson/apiperms/internal/perms"
)

// Kind names a level of the API tree.
type Kind string

const (
	KindPackage Kind = "package"
	KindClass   Kind = "class"
	KindMethod  Kind = "method"
)

// Node is implemented by Package, Class and Method.
type Node interface {
	Kind() Kind
	Info() *Doc
	String() string
}

// Doc holds the fields shared by every node. Permissions is reserved for
// linking API elements to the permissions they need; the parser never fills it.
type Doc struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Permissions []perms.Permission `json:"permissions"`
}

func newDoc(name, description string) Doc {
	return Doc{Name: name, Description: description, Permissions: []perms.Permission{}}
}

func (d *Doc) Info() *Doc { return d }

// Package is a top-level API package and owns its classes.
type Package struct {
	Doc
	Classes []*Class `json:"classes"`
}

func NewPackage(name, description string) *Package {
	return &Package{Doc: newDoc(name, description), Classes: []*Class{}}
}

func (p *Package) Kind() Kind { return KindPackage }

// Class is a class within a package and owns its methods.
type Class struct {
	Doc
	Methods []*Method `json:"methods"`
}

func NewClass(name, description string) *Class {
	return &Class{Doc: newDoc(name, description), Methods: []*Method{}}
}

func (c *Class) Kind() Kind { return KindClass }

type Method struct {
	Doc
}

func NewMethod(name, description string) *Method {
	return &Method{Doc: newDoc(name, description)}
}

func (m *Method) Kind() Kind { return KindMethod }

// Walk visits every node depth-first in file order. Returning false from fn
// skips the node's children.
func Walk(pkgs []*Package, fn func(n Node) bool) {
	for _, p := range pkgs {
		if !fn(p) {
			continue
		}
		for _, c := range p.Classes {
			if !fn(c) {
				continue
			}
			for _, m := range c.Methods {
				fn(m)
			}
		}
	}
}

// Counts tallies the nodes in a tree.
func Counts(pkgs []*Package) (packages, classes, methods int) {
	Walk(pkgs, func(n Node) bool {
		switch n.Kind() {
		case KindPackage:
			packages++
		case KindClass:
			classes++
		case KindMethod:
			methods++
		}
		return true
	})
	return
}

// FindPackage returns the first package named name.
func FindPackage(pkgs []*Package, name string) *Package {
	for _, p := range pkgs {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// MethodRef is a method together with its enclosing package and class.
type MethodRef struct {
	Package *Package
	Class   *Class
	Method  *Method
}

// Path returns package.Class.method.
func (r MethodRef) Path() string {
	return r.Package.Name + "." + r.Class.Name + "." + r.Method.Name
}

// FindMethods returns methods whose name or description contains query,
// case-insensitively, in file order. limit <= 0 means no limit.
func FindMethods(pkgs []*Package, query string, limit int) []MethodRef {
	q := strings.ToLower(query)
	var out []MethodRef
	for _, p := range pkgs {
		for _, c := range p.Classes {
			for _, m := range c.Methods {
				if !strings.Contains(strings.ToLower(m.Name), q) &&
					!strings.Contains(strings.ToLower(m.Description), q) {
					continue
				}
				out = append(out, MethodRef{Package: p, Class: c, Method: m})
				if limit > 0 && len(out) >= limit {
					return out
				}
			}
		}
	}
	return out
}
