package cgen

import (
	"fmt"
	"io"
	"strings"
)

// Format prints decls in order, one declaration per line and struct members
// indented by two spaces.
func Format(decls []Decl, w io.Writer) {
	for _, decl := range decls {
		formatDecl(decl, w)
	}
}

func formatDecl(decl Decl, w io.Writer) {
	switch d := decl.(type) {
	case *Enum:
		values := make([]string, len(d.Enumerators))
		for i, e := range d.Enumerators {
			values[i] = fmt.Sprintf("%s = %d", e.Name, e.Value)
		}
		fmt.Fprintf(w, "enum %s {%s};\n", d.Tag, strings.Join(values, ", "))
	case *Struct:
		fmt.Fprintf(w, "struct %s\n{\n", d.Tag)
		for _, m := range d.Members {
			fmt.Fprintf(w, "  %s;\n", declarator(m.Type, m.Name, m.Len))
		}
		fmt.Fprintln(w, "};")
	case *Typedef:
		fmt.Fprintf(w, "typedef %s %s %s;\n", d.Keyword, d.Tag, d.Name)
	case *Var:
		fmt.Fprintf(w, "%s;\n", declarator(d.Type, d.Name, d.Len))
	}
}

func declarator(typ, name string, n int) string {
	if n > 0 {
		return fmt.Sprintf("%s %s[%d]", typ, name, n)
	}
	return typ + " " + name
}

// String renders decls as one document.
func String(decls []Decl) string {
	var b strings.Builder
	Format(decls, &b)
	return b.String()
}
