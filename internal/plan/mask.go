package plan

import "github.com/graphmesh/graphmesh/internal/value"

// MaskArguments returns a deep copy of the selection with every argument
// value masked. The query keeps its structural shape so traces stay
// queryable while PII is stripped. Masking is idempotent.
func MaskArguments(fields []*Field) []*Field {
	if fields == nil {
		return nil
	}
	out := make([]*Field, len(fields))
	for i, f := range fields {
		masked := &Field{
			Name:       f.Name,
			OutputName: f.OutputName,
			Targets:    f.Targets,
			Eliminate:  f.Eliminate,
			Resolver:   f.Resolver,
			Fields:     MaskArguments(f.Fields),
		}
		for _, a := range f.Arguments {
			masked.Arguments = append(masked.Arguments, Argument{Name: a.Name, Value: MaskValue(a.Value)})
		}
		out[i] = masked
	}
	return out
}

// MaskValue blanks scalar payloads and empties objects; booleans, enums,
// nulls and variable references pass through unchanged.
func MaskValue(in value.Input) value.Input {
	v := value.Value(in)
	switch v.Kind {
	case value.KindObject:
		return value.Object().AsInput()
	case value.KindString:
		return value.String("").AsInput()
	case value.KindInt:
		return value.Int(0).AsInput()
	case value.KindFloat:
		return value.Float(0).AsInput()
	case value.KindList:
		items := make([]value.Value, len(v.Items))
		for i, item := range v.Items {
			items[i] = value.Value(MaskValue(value.Input(item)))
		}
		return value.List(items...).AsInput()
	default:
		return in
	}
}
