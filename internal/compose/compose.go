// Package compose builds one supergraph schema out of the subgraph schemas.
// Root fields of every exposed subgraph merge into canonical Query, Mutation
// and Subscription types, each annotated with the identity extend that names
// its owning subgraph; user visitors then reshape the result.
package compose

import (
	"sort"

	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/subgraph"
)

const (
	queryTypeName        = "Query"
	mutationTypeName     = "Mutation"
	subscriptionTypeName = "Subscription"
)

// Compose merges the subgraph schemas into a supergraph and applies the
// visitors in order. Every field of the canonical root types carries an
// Extend naming the subgraph that resolves it; other fields carry one only
// when a visitor adds it.
func Compose(subgraphs []*subgraph.SubGraph, visitors ...Visitor) (*schema.Schema, error) {
	if len(subgraphs) == 0 {
		return nil, gqlerr.Configuration("cannot compose a supergraph from zero subgraphs")
	}

	super := schema.NewSchema("").WithBuiltins()

	for _, sg := range subgraphs {
		if err := mergeSubgraph(super, sg); err != nil {
			return nil, err
		}
	}

	for _, v := range visitors {
		if err := v.Apply(super); err != nil {
			return nil, gqlerr.Configuration("schema transformer failed: %s", err.Error())
		}
	}
	return super, nil
}

func mergeSubgraph(super *schema.Schema, sg *subgraph.SubGraph) error {
	if sg.Schema == nil {
		return gqlerr.Configuration("subgraph %s has no schema", sg.Name)
	}

	// Only object-kinded roots participate; a subgraph without an object
	// query root contributes no root fields.
	rootNames := map[string]string{}
	if qt := sg.Schema.GetQueryType(); qt != nil && qt.Kind == schema.TypeKindObject {
		rootNames[qt.Name] = queryTypeName
		if mt := sg.Schema.GetMutationType(); mt != nil && mt.Kind == schema.TypeKindObject {
			rootNames[mt.Name] = mutationTypeName
		}
		if st := sg.Schema.GetSubscriptionType(); st != nil && st.Kind == schema.TypeKindObject {
			rootNames[st.Name] = subscriptionTypeName
		}
	}

	// Deterministic merge order.
	typeNames := make([]string, 0, len(sg.Schema.Types))
	for name := range sg.Schema.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		t := sg.Schema.Types[name]
		if canonical, isRoot := rootNames[name]; isRoot {
			// Root types of hidden subgraphs stay out of the supergraph
			// entirely; the subgraph is reachable only through extend
			// bindings.
			if !sg.ExposeAtRoot {
				continue
			}
			if err := mergeRootType(super, sg, t, canonical); err != nil {
				return err
			}
			continue
		}
		if isBuiltinScalar(name) {
			continue
		}
		if err := mergeType(super, sg, t); err != nil {
			return err
		}
	}
	return nil
}

// mergeRootType merges a subgraph root type's fields into the canonical
// supergraph root, annotating each with its identity extend.
func mergeRootType(super *schema.Schema, sg *subgraph.SubGraph, t *schema.Type, canonical string) error {
	root := super.Types[canonical]
	if root == nil {
		root = schema.NewType(canonical, schema.TypeKindObject, "")
		super.AddType(root)
		switch canonical {
		case queryTypeName:
			super.SetQueryType(canonical)
		case mutationTypeName:
			super.SetMutationType(canonical)
		case subscriptionTypeName:
			super.SetSubscriptionType(canonical)
		}
	}
	for _, f := range t.Fields {
		if root.Field(f.Name) != nil {
			return gqlerr.Configuration("root field %s.%s is exposed by more than one subgraph", canonical, f.Name)
		}
		merged := copyField(f)
		merged.Extend = &schema.Extend{SourceGraph: sg.Name, SourceField: f.Name}
		root.AddField(merged)
	}
	return nil
}

// mergeType unions a non-root type into the supergraph. Same-named types
// combine their fields; a duplicate field name across subgraphs is a
// composition error.
func mergeType(super *schema.Schema, sg *subgraph.SubGraph, t *schema.Type) error {
	existing := super.Types[t.Name]
	if existing == nil {
		super.AddType(copyType(t))
		return nil
	}
	if existing.Kind != t.Kind {
		return gqlerr.Configuration("type %s is declared with conflicting kinds (%s and %s)", t.Name, existing.Kind, t.Kind)
	}
	switch t.Kind {
	case schema.TypeKindObject, schema.TypeKindInterface:
		for _, f := range t.Fields {
			if existing.Field(f.Name) != nil {
				return gqlerr.Configuration("field %s.%s is declared by more than one subgraph", t.Name, f.Name)
			}
			existing.AddField(copyField(f))
		}
	case schema.TypeKindEnum:
		for _, v := range t.EnumValues {
			if !hasEnumValue(existing, v.Name) {
				existing.AddEnumValue(v)
			}
		}
	case schema.TypeKindUnion:
		for _, p := range t.PossibleTypes {
			if !containsString(existing.PossibleTypes, p) {
				existing.AddPossibleType(p)
			}
		}
	case schema.TypeKindInputObject:
		for _, v := range t.InputFields {
			if !hasInputField(existing, v.Name) {
				existing.AddInputField(v)
			}
		}
	}
	return nil
}

func copyType(t *schema.Type) *schema.Type {
	out := *t
	out.Fields = make([]*schema.Field, len(t.Fields))
	for i, f := range t.Fields {
		out.Fields[i] = copyField(f)
	}
	out.Interfaces = append([]string(nil), t.Interfaces...)
	out.PossibleTypes = append([]string(nil), t.PossibleTypes...)
	out.EnumValues = append([]*schema.EnumValue(nil), t.EnumValues...)
	out.InputFields = append([]*schema.InputValue(nil), t.InputFields...)
	return &out
}

func copyField(f *schema.Field) *schema.Field {
	out := *f
	out.Arguments = append([]*schema.InputValue(nil), f.Arguments...)
	return &out
}

func isBuiltinScalar(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID":
		return true
	}
	return false
}

func hasEnumValue(t *schema.Type, name string) bool {
	for _, v := range t.EnumValues {
		if v.Name == name {
			return true
		}
	}
	return false
}

func hasInputField(t *schema.Type, name string) bool {
	for _, v := range t.InputFields {
		if v.Name == name {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
