package markdown

import (
	"fmt"
	"sort"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"

	"github.com/jcdickinson/apiperms/internal/model"
	"github.com/jcdickinson/apiperms/internal/perms"
)

// Report renders the model as a Markdown document: front matter naming the
// inputs, a permission table per protection level, then the API tree.
func Report(m *model.Model) string {
	var b strings.Builder
	b.WriteString("# API permission report\n\n")

	stats := m.Stats()
	fmt.Fprintf(&b, "%d packages, %d classes, %d methods, %d permissions.\n\n",
		stats.Packages, stats.Classes, stats.Methods, stats.Permissions)

	b.WriteString("## Permissions\n\n")
	for i := len(perms.Levels) - 1; i >= 0; i-- {
		level := perms.Levels[i]
		ps := m.Permissions.Filter(level)
		fmt.Fprintf(&b, "### %s (%d)\n\n", level, len(ps))
		if len(ps) == 0 {
			b.WriteString("_none_\n\n")
			continue
		}
		b.WriteString("| Name | Group |\n| --- | --- |\n")
		for _, p := range ps {
			group := ""
			if p.IsGroup {
				group = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(p.Name), group)
		}
		b.WriteString("\n")
	}

	b.WriteString("## API\n\n")
	for _, p := range m.Packages {
		fmt.Fprintf(&b, "### %s\n\n", p.Name)
		if p.Description != "" {
			b.WriteString(p.Description + "\n\n")
		}
		for _, c := range p.Classes {
			fmt.Fprintf(&b, "#### %s\n\n", c.Name)
			if c.Description != "" {
				b.WriteString(c.Description + "\n\n")
			}
			for _, mt := range c.Methods {
				if mt.Description != "" {
					fmt.Fprintf(&b, "- `%s`: %s\n", mt.Name, mt.Description)
				} else {
					fmt.Fprintf(&b, "- `%s`\n", mt.Name)
				}
			}
			if len(c.Methods) > 0 {
				b.WriteString("\n")
			}
		}
	}

	return AddFrontMatter(b.String(), map[string]string{
		"methods_file": m.Source.MethodsPath,
		"methods_hash": m.Source.MethodsHash,
		"perms_file":   m.Source.PermsPath,
		"perms_hash":   m.Source.PermsHash,
	})
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// AddFrontMatter prepends a YAML front-matter block. Empty values are skipped.
func AddFrontMatter(src string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return src
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, fields[k]))
	}
	b.WriteString("---\n\n")
	b.WriteString(src)
	return b.String()
}

// StripFrontMatter removes a leading front-matter block, if any.
func StripFrontMatter(src string) string {
	if !strings.HasPrefix(src, "---\n") {
		return src
	}
	end := strings.Index(src[4:], "\n---\n")
	if end < 0 {
		return src
	}
	return strings.TrimLeft(src[4+end+5:], "\n")
}

func newParser() *gmparser.Parser {
	return gmparser.NewWithExtensions(gmparser.CommonExtensions | gmparser.Autolink)
}

// ToHTML renders Markdown (front matter excluded) as a standalone HTML page.
func ToHTML(src string) string {
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "API permission report",
	})
	return string(gm.ToHTML([]byte(StripFrontMatter(src)), newParser(), renderer))
}

// Heading is a heading found in a Markdown document.
type Heading struct {
	Level int
	Text  string
}

// Headings lists the document's headings in order.
func Headings(src string) []Heading {
	doc := gm.Parse([]byte(StripFrontMatter(src)), newParser())

	var out []Heading
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		h, ok := node.(*ast.Heading)
		if !ok {
			return ast.GoToNext
		}
		out = append(out, Heading{Level: h.Level, Text: plainText(h)})
		return ast.SkipChildren
	})
	return out
}

// TOC renders the headings of src below the title as a nested bullet list.
func TOC(src string) string {
	var b strings.Builder
	for _, h := range Headings(src) {
		if h.Level < 2 {
			continue
		}
		fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", h.Level-2), h.Text)
	}
	return b.String()
}

func plainText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch leaf := n.(type) {
		case *ast.Text:
			b.Write(leaf.Literal)
		case *ast.Code:
			b.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}
