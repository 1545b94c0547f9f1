package value

import (
	"strconv"
	"strings"
)

// RenderLiteral renders an input value as a GraphQL literal.
func RenderLiteral(b *strings.Builder, in Input) {
	v := Value(in)
	switch v.Kind {
	case KindNull, "":
		b.WriteString("null")
	case KindInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		b.WriteString(formatFloat(v.Float))
	case KindString:
		b.WriteString(strconv.Quote(v.Str))
	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.Bool))
	case KindEnum:
		b.WriteString(v.Str)
	case KindVariable:
		b.WriteByte('$')
		b.WriteString(v.Str)
	case KindList:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			RenderLiteral(b, Input(item))
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			RenderLiteral(b, Input(f.Value))
		}
		b.WriteByte('}')
	}
}

// formatFloat keeps a decimal point so float literals stay floats on re-parse.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
