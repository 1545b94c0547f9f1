package httptp

import (
	"context"

	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Introspect fetches the remote schema through the standard introspection
// query and lowers it into the schema model used for composition.
func (t *Transport) Introspect(ctx context.Context) (*schema.Schema, error) {
	data, err := t.Run(ctx, introspectionQuery, "query", nil)
	if err != nil {
		return nil, err
	}
	root, ok := data.Get("__schema")
	if !ok || root.Kind != value.KindObject {
		return nil, gqlerr.Execution("subgraph %s: malformed introspection response", t.name)
	}
	return buildSchema(root)
}

func buildSchema(root value.Value) (*schema.Schema, error) {
	sch := schema.NewSchema("").WithBuiltins()
	if name := rootTypeName(root, "queryType"); name != "" {
		sch.SetQueryType(name)
	}
	if name := rootTypeName(root, "mutationType"); name != "" {
		sch.SetMutationType(name)
	}
	if name := rootTypeName(root, "subscriptionType"); name != "" {
		sch.SetSubscriptionType(name)
	}

	types, _ := root.Get("types")
	for _, t := range types.Items {
		built := buildType(t)
		if built == nil {
			continue
		}
		if len(built.Name) >= 2 && built.Name[:2] == "__" {
			continue
		}
		sch.AddType(built)
	}
	return sch, nil
}

func rootTypeName(root value.Value, key string) string {
	rt, ok := root.Get(key)
	if !ok {
		return ""
	}
	return stringField(rt, "name")
}

func buildType(v value.Value) *schema.Type {
	name := stringField(v, "name")
	if name == "" {
		return nil
	}
	kind := schema.TypeKind(stringField(v, "kind"))
	t := schema.NewType(name, kind, stringField(v, "description"))

	if fields, ok := v.Get("fields"); ok {
		for _, f := range fields.Items {
			field := schema.NewField(stringField(f, "name"), stringField(f, "description"), buildTypeRef(f, "type"))
			if args, ok := f.Get("args"); ok {
				for _, a := range args.Items {
					field.AddArgument(buildInputValue(a))
				}
			}
			if boolField(f, "isDeprecated") {
				field.Deprecate(stringField(f, "deprecationReason"))
			}
			t.AddField(field)
		}
	}
	if inputs, ok := v.Get("inputFields"); ok {
		for _, iv := range inputs.Items {
			t.AddInputField(buildInputValue(iv))
		}
	}
	if ifaces, ok := v.Get("interfaces"); ok {
		for _, i := range ifaces.Items {
			if n := stringField(i, "name"); n != "" {
				t.AddInterface(n)
			}
		}
	}
	if possible, ok := v.Get("possibleTypes"); ok {
		for _, p := range possible.Items {
			if n := stringField(p, "name"); n != "" {
				t.AddPossibleType(n)
			}
		}
	}
	if enums, ok := v.Get("enumValues"); ok {
		for _, ev := range enums.Items {
			e := schema.NewEnumValue(stringField(ev, "name"), stringField(ev, "description"))
			if boolField(ev, "isDeprecated") {
				e.Deprecate(stringField(ev, "deprecationReason"))
			}
			t.AddEnumValue(e)
		}
	}
	return t
}

func buildInputValue(v value.Value) *schema.InputValue {
	iv := schema.NewInputValue(stringField(v, "name"), stringField(v, "description"), buildTypeRef(v, "type"))
	if def, ok := v.Get("defaultValue"); ok && !def.IsNull() {
		iv.SetDefault(def.Str)
	}
	return iv
}

func buildTypeRef(v value.Value, key string) *schema.TypeRef {
	ref, ok := v.Get(key)
	if !ok || ref.Kind != value.KindObject {
		return nil
	}
	switch stringField(ref, "kind") {
	case "NON_NULL":
		return schema.NonNullType(buildTypeRef(ref, "ofType"))
	case "LIST":
		return schema.ListType(buildTypeRef(ref, "ofType"))
	default:
		return schema.NamedType(stringField(ref, "name"))
	}
}

func stringField(v value.Value, name string) string {
	f, ok := v.Get(name)
	if !ok || f.Kind != value.KindString {
		return ""
	}
	return f.Str
}

func boolField(v value.Value, name string) bool {
	f, ok := v.Get(name)
	return ok && f.Kind == value.KindBoolean && f.Bool
}

const introspectionQuery = `
query {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
    isDeprecated
    deprecationReason
  }
  inputFields {
    ...InputValue
  }
  interfaces {
    ...TypeRef
  }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}
`
