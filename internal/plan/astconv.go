package plan

import (
	"strconv"

	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/language"
	"github.com/graphmesh/graphmesh/internal/value"
)

// ConvertValue lowers a parsed AST value into an input value. Variable
// references are substituted from variables when present and kept as
// references otherwise.
func ConvertValue(v *language.Value, variables map[string]value.Value) (value.Input, error) {
	if v == nil {
		return value.Null().AsInput(), nil
	}
	switch v.Kind {
	case language.Variable:
		if val, ok := variables[v.Raw]; ok {
			return val.AsInput(), nil
		}
		return value.Variable(v.Raw), nil
	case language.NullValue:
		return value.Null().AsInput(), nil
	case language.IntValue:
		i, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return value.Null().AsInput(), gqlerr.Validation("invalid int literal %q", v.Raw)
		}
		return value.Int(i).AsInput(), nil
	case language.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return value.Null().AsInput(), gqlerr.Validation("invalid float literal %q", v.Raw)
		}
		return value.Float(f).AsInput(), nil
	case language.StringValue, language.BlockValue:
		return value.String(v.Raw).AsInput(), nil
	case language.BooleanValue:
		return value.Boolean(v.Raw == "true").AsInput(), nil
	case language.EnumValue:
		return value.Enum(v.Raw).AsInput(), nil
	case language.ListValue:
		items := make([]value.Value, 0, len(v.Children))
		for _, child := range v.Children {
			cv, err := ConvertValue(child.Value, variables)
			if err != nil {
				return value.Null().AsInput(), err
			}
			items = append(items, cv.AsValue())
		}
		return value.List(items...).AsInput(), nil
	case language.ObjectValue:
		fields := make([]value.ObjectField, 0, len(v.Children))
		for _, child := range v.Children {
			cv, err := ConvertValue(child.Value, variables)
			if err != nil {
				return value.Null().AsInput(), err
			}
			fields = append(fields, value.ObjectField{Name: child.Name, Value: cv.AsValue()})
		}
		return value.Object(fields...).AsInput(), nil
	}
	return value.Null().AsInput(), gqlerr.Validation("unsupported value kind %d", v.Kind)
}
