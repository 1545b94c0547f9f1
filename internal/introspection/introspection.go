// Package introspection serves __schema and __type selections locally from
// the composed supergraph, bypassing the federation engine entirely.
package introspection

import (
	"fmt"
	"sort"

	"github.com/graphmesh/graphmesh/internal/plan"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/value"
)

// IsIntrospection reports whether every root field of the selection is a
// meta field, in which case the request never reaches any subgraph.
func IsIntrospection(fields []*plan.Field) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if len(f.Name) < 2 || f.Name[:2] != "__" {
			return false
		}
	}
	return true
}

// Execute resolves an introspection selection against the schema.
func Execute(sch *schema.Schema, fields []*plan.Field) value.Value {
	out := make([]value.ObjectField, 0, len(fields))
	for _, f := range fields {
		var v value.Value
		switch f.Name {
		case "__schema":
			v = completeValue(sch, sch, f.Fields)
		case "__type":
			name := stringArg(f, "name")
			if t := sch.Types[name]; t != nil {
				v = completeValue(sch, t, f.Fields)
			} else {
				v = value.Null()
			}
		case "__typename":
			v = value.String("Query")
		default:
			v = value.Null()
		}
		out = append(out, value.ObjectField{Name: f.Out(), Value: v})
	}
	return value.Object(out...)
}

// completeValue walks the selection over schema model nodes, producing the
// response tree in selection order.
func completeValue(sch *schema.Schema, src any, fields []*plan.Field) value.Value {
	if t, ok := src.(*schema.Type); ok && t == nil {
		return value.Null()
	}
	if tr, ok := src.(*schema.TypeRef); ok && tr == nil {
		return value.Null()
	}
	switch s := src.(type) {
	case nil:
		return value.Null()
	case string:
		return value.String(s)
	case *string:
		if s == nil {
			return value.Null()
		}
		return value.String(*s)
	case bool:
		return value.Boolean(s)
	case []string:
		items := make([]value.Value, len(s))
		for i, v := range s {
			items[i] = value.String(v)
		}
		return value.List(items...)
	case []*schema.Type:
		if s == nil {
			return value.Null()
		}
		return completeList(sch, len(s), func(i int) any { return s[i] }, fields)
	case []*schema.Field:
		if s == nil {
			return value.Null()
		}
		return completeList(sch, len(s), func(i int) any { return s[i] }, fields)
	case []*schema.InputValue:
		if s == nil {
			return value.Null()
		}
		return completeList(sch, len(s), func(i int) any { return s[i] }, fields)
	case []*schema.EnumValue:
		if s == nil {
			return value.Null()
		}
		return completeList(sch, len(s), func(i int) any { return s[i] }, fields)
	case []*schema.Directive:
		if s == nil {
			return value.Null()
		}
		return completeList(sch, len(s), func(i int) any { return s[i] }, fields)
	}

	out := make([]value.ObjectField, 0, len(fields))
	for _, f := range fields {
		out = append(out, value.ObjectField{Name: f.Out(), Value: resolveField(sch, src, f)})
	}
	return value.Object(out...)
}

func completeList(sch *schema.Schema, n int, at func(int) any, fields []*plan.Field) value.Value {
	items := make([]value.Value, n)
	for i := 0; i < n; i++ {
		items[i] = completeValue(sch, at(i), fields)
	}
	return value.List(items...)
}

func resolveField(sch *schema.Schema, src any, f *plan.Field) value.Value {
	if f.Name == "__typename" {
		return value.String(typeNameOf(src))
	}
	attr, ok := resolveAttr(sch, src, f)
	if !ok {
		return value.Null()
	}
	if isLeaf(attr) {
		return completeValue(sch, attr, nil)
	}
	return completeValue(sch, attr, f.Fields)
}

func isLeaf(v any) bool {
	switch v.(type) {
	case nil, string, *string, bool, []string:
		return true
	}
	return false
}

func typeNameOf(src any) string {
	switch src.(type) {
	case *schema.Schema:
		return "__Schema"
	case *schema.Type, *schema.TypeRef:
		return "__Type"
	case *schema.Field:
		return "__Field"
	case *schema.InputValue:
		return "__InputValue"
	case *schema.EnumValue:
		return "__EnumValue"
	case *schema.Directive:
		return "__Directive"
	}
	return ""
}

func resolveAttr(sch *schema.Schema, src any, f *plan.Field) (any, bool) {
	switch s := src.(type) {
	case *schema.Schema:
		return resolveSchemaField(s, f.Name)
	case *schema.Type:
		return resolveTypeField(sch, s, f)
	case *schema.TypeRef:
		return resolveTypeRefField(sch, s, f)
	case *schema.Field:
		return resolveFieldField(s, f)
	case *schema.InputValue:
		return resolveInputValueField(s, f.Name)
	case *schema.EnumValue:
		return resolveEnumValueField(s, f.Name)
	case *schema.Directive:
		return resolveDirectiveField(s, f)
	}
	return nil, false
}

func resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return sortedTypes(sch), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		return sch.GetMutationType(), true
	case "subscriptionType":
		return sch.GetSubscriptionType(), true
	case "directives":
		return sortedDirectives(sch), true
	case "description":
		return sch.Description, true
	}
	return nil, false
}

func resolveTypeField(sch *schema.Schema, t *schema.Type, f *plan.Field) (any, bool) {
	switch f.Name {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return t.Description, true
	case "specifiedByURL":
		return t.SpecifiedByURL, true
	case "fields":
		return typeFields(t, includeDeprecated(f)), true
	case "interfaces":
		return namedTypes(sch, t.Interfaces, t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface), true
	case "possibleTypes":
		return namedTypes(sch, t.PossibleTypes, t.Kind == schema.TypeKindInterface || t.Kind == schema.TypeKindUnion), true
	case "enumValues":
		return typeEnumValues(t, includeDeprecated(f)), true
	case "inputFields":
		return typeInputFields(t, includeDeprecated(f)), true
	case "isOneOf":
		return t.OneOf, true
	case "ofType":
		// Named types never wrap anything; LIST and NON_NULL appear as
		// TypeRef nodes.
		return nil, true
	}
	return nil, false
}

func resolveTypeRefField(sch *schema.Schema, tr *schema.TypeRef, f *plan.Field) (any, bool) {
	switch f.Name {
	case "kind":
		switch tr.Kind {
		case schema.TypeRefKindList:
			return "LIST", true
		case schema.TypeRefKindNonNull:
			return "NON_NULL", true
		}
		if def := sch.Types[tr.Named]; def != nil {
			return string(def.Kind), true
		}
		return "SCALAR", true
	case "name":
		if tr.Kind != schema.TypeRefKindNamed {
			return nil, true
		}
		return tr.Named, true
	case "ofType":
		if tr.Kind == schema.TypeRefKindNonNull || tr.Kind == schema.TypeRefKindList {
			return tr.OfType, true
		}
		return nil, true
	default:
		if name := schema.GetNamedType(tr); name != "" {
			if def := sch.Types[name]; def != nil {
				return resolveTypeField(sch, def, f)
			}
		}
		return nil, true
	}
}

func resolveFieldField(fd *schema.Field, f *plan.Field) (any, bool) {
	switch f.Name {
	case "name":
		return fd.Name, true
	case "description":
		return fd.Description, true
	case "args":
		return fieldArgs(fd.Arguments, includeDeprecated(f)), true
	case "type":
		return fd.Type, true
	case "isDeprecated":
		return fd.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(fd.IsDeprecated, fd.DeprecationReason), true
	}
	return nil, false
}

func resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return a.Description, true
	case "type":
		return a.Type, true
	case "defaultValue":
		if a.DefaultValue != nil {
			v := fmt.Sprintf("%v", a.DefaultValue)
			return &v, true
		}
		return (*string)(nil), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return ev.Description, true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.Directive, f *plan.Field) (any, bool) {
	switch f.Name {
	case "name":
		return d.Name, true
	case "description":
		return d.Description, true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		locs := append([]string(nil), d.Locations...)
		sort.Strings(locs)
		return locs, true
	case "args":
		return fieldArgs(d.Arguments, includeDeprecated(f)), true
	}
	return nil, false
}

// --- helpers ---

func sortedTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedDirectives(sch *schema.Schema) []*schema.Directive {
	out := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typeFields(t *schema.Type, deprecated bool) []*schema.Field {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	out := []*schema.Field{}
	for _, f := range t.Fields {
		if !deprecated && f.IsDeprecated {
			continue
		}
		out = append(out, f)
	}
	return out
}

func typeEnumValues(t *schema.Type, deprecated bool) []*schema.EnumValue {
	if t.Kind != schema.TypeKindEnum {
		return nil
	}
	out := []*schema.EnumValue{}
	for _, ev := range t.EnumValues {
		if !deprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func typeInputFields(t *schema.Type, deprecated bool) []*schema.InputValue {
	if t.Kind != schema.TypeKindInputObject {
		return nil
	}
	out := []*schema.InputValue{}
	for _, iv := range t.InputFields {
		if !deprecated && iv.IsDeprecated {
			continue
		}
		out = append(out, iv)
	}
	return out
}

func fieldArgs(args []*schema.InputValue, deprecated bool) []*schema.InputValue {
	out := []*schema.InputValue{}
	for _, a := range args {
		if !deprecated && a.IsDeprecated {
			continue
		}
		out = append(out, a)
	}
	return out
}

func namedTypes(sch *schema.Schema, names []string, applies bool) []*schema.Type {
	if !applies {
		return nil
	}
	out := []*schema.Type{}
	for _, name := range names {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func deprecationReason(deprecated bool, reason string) *string {
	if deprecated {
		return &reason
	}
	return nil
}

func includeDeprecated(f *plan.Field) bool {
	in, ok := f.Argument("includeDeprecated")
	if !ok {
		return false
	}
	v := in.AsValue()
	return v.Kind == value.KindBoolean && v.Bool
}

func stringArg(f *plan.Field, name string) string {
	in, ok := f.Argument(name)
	if !ok {
		return ""
	}
	v := in.AsValue()
	if v.Kind == value.KindString {
		return v.Str
	}
	return ""
}
