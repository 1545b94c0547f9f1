package value

import (
	"encoding/json"
	"sort"
)

// FromAny converts a decoded-JSON Go value (as produced by encoding/json)
// into a Value. Map keys are sorted for determinism since Go maps carry no
// order. Integral float64 values become Int.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Boolean(x)
	case string:
		return String(x)
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float64:
		if x == float64(int64(x)) {
			return Int(int64(x))
		}
		return Float(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		if f, err := x.Float64(); err == nil {
			return Float(f)
		}
		return String(x.String())
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return List(items...)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]ObjectField, len(keys))
		for i, k := range keys {
			fields[i] = ObjectField{Name: k, Value: FromAny(x[k])}
		}
		return Object(fields...)
	}
	return Null()
}

// ToAny converts a Value into plain Go data (maps, slices, scalars).
func (v Value) ToAny() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString, KindEnum, KindVariable:
		return v.Str
	case KindBoolean:
		return v.Bool
	case KindList:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name] = f.Value.ToAny()
		}
		return out
	}
	return nil
}
