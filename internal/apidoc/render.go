package apidoc

import "strings"

func (p *Package) String() string {
	var b strings.Builder
	b.WriteString(p.Name + "\n")
	for _, c := range p.Classes {
		b.WriteString(c.String())
	}
	return b.String()
}

func (c *Class) String() string {
	var b strings.Builder
	b.WriteString("\t" + c.Name + "\n")
	for _, m := range c.Methods {
		b.WriteString(m.String())
	}
	return b.String()
}

func (m *Method) String() string {
	return "\t\t" + m.Name + "\n"
}

// Render concatenates the rendering of every package.
func Render(pkgs []*Package) string {
	var b strings.Builder
	for _, p := range pkgs {
		b.WriteString(p.String())
	}
	return b.String()
}
