package plan

import (
	"strings"

	"github.com/graphmesh/graphmesh/internal/value"
)

// RenderDocument produces the GraphQL document dispatched to a subgraph, or
// attached to a trace span. operation is "query", "mutation" or
// "subscription".
func RenderDocument(operation string, fields []*Field) string {
	var b strings.Builder
	b.WriteString(operation)
	b.WriteString(" ")
	renderSelectionSet(&b, fields)
	return b.String()
}

// renderSelectionSet writes the braced selection. Consecutive fields sharing
// the same type targets collapse into one inline fragment per target.
func renderSelectionSet(b *strings.Builder, fields []*Field) {
	b.WriteString("{ ")
	for i := 0; i < len(fields); {
		f := fields[i]
		if len(f.Targets) == 0 {
			renderField(b, f)
			b.WriteString(" ")
			i++
			continue
		}
		j := i + 1
		for j < len(fields) && sameTargets(fields[j].Targets, f.Targets) {
			j++
		}
		for _, target := range f.Targets {
			b.WriteString("... on ")
			b.WriteString(target)
			b.WriteString(" { ")
			for _, tf := range fields[i:j] {
				renderField(b, tf)
				b.WriteString(" ")
			}
			b.WriteString("} ")
		}
		i = j
	}
	b.WriteString("}")
}

func sameTargets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func renderField(b *strings.Builder, f *Field) {
	if f.OutputName != "" && f.OutputName != f.Name {
		b.WriteString(f.OutputName)
		b.WriteString(": ")
	}
	b.WriteString(f.Name)
	if len(f.Arguments) > 0 {
		b.WriteString("(")
		for i, a := range f.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Name)
			b.WriteString(": ")
			value.RenderLiteral(b, a.Value)
		}
		b.WriteString(")")
	}
	if len(f.Fields) > 0 {
		b.WriteString(" ")
		renderSelectionSet(b, f.Fields)
	}
}
