package resolve

import (
	"strings"

	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/language"
	"github.com/graphmesh/graphmesh/internal/plan"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Bind lowers a parsed operation into the bound selection tree the engine
// resolves. Every field is routed by its supergraph annotation: fields
// carrying an Extend become fetchers, everything else projects from the
// parent value. Fragment spreads and inline fragments flatten into their
// enclosing selection with type conditions preserved as targets.
func Bind(sch *schema.Schema, doc *language.QueryDocument, op *language.OperationDefinition, variables map[string]value.Value) ([]*plan.Field, *gqlerr.Error) {
	rootType := sch.RootType(string(op.Operation))
	if rootType == nil {
		return nil, gqlerr.Validation("schema does not support %s operations", op.Operation)
	}
	b := &binder{sch: sch, doc: doc, variables: variables}
	return b.bindSelectionSet(rootType, op.SelectionSet, nil)
}

type binder struct {
	sch       *schema.Schema
	doc       *language.QueryDocument
	variables map[string]value.Value
}

func (b *binder) bindSelectionSet(parentType *schema.Type, set language.SelectionSet, targets []string) ([]*plan.Field, *gqlerr.Error) {
	var out []*plan.Field
	visited := map[string]bool{}
	if err := b.collect(parentType, set, targets, visited, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *binder) collect(parentType *schema.Type, set language.SelectionSet, targets []string, visited map[string]bool, out *[]*plan.Field) *gqlerr.Error {
	for _, sel := range set {
		switch s := sel.(type) {
		case *language.Field:
			if !b.shouldInclude(s.Directives) {
				continue
			}
			f, err := b.bindField(parentType, s, targets)
			if err != nil {
				return err
			}
			*out = append(*out, f)

		case *language.InlineFragment:
			if !b.shouldInclude(s.Directives) {
				continue
			}
			childType, childTargets := b.narrow(parentType, s.TypeCondition, targets)
			if err := b.collect(childType, s.SelectionSet, childTargets, visited, out); err != nil {
				return err
			}

		case *language.FragmentSpread:
			if !b.shouldInclude(s.Directives) {
				continue
			}
			if visited[s.Name] {
				continue
			}
			visited[s.Name] = true
			def := b.doc.Fragments.ForName(s.Name)
			if def == nil {
				return gqlerr.Validation("fragment %s is not defined", s.Name)
			}
			childType, childTargets := b.narrow(parentType, def.TypeCondition, targets)
			if err := b.collect(childType, def.SelectionSet, childTargets, visited, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// narrow applies a fragment type condition: selections bind against the
// condition type and carry it as a target unless it matches the enclosing
// type exactly.
func (b *binder) narrow(parentType *schema.Type, condition string, targets []string) (*schema.Type, []string) {
	if condition == "" {
		return parentType, targets
	}
	if parentType != nil && parentType.Name == condition {
		return parentType, targets
	}
	if t := b.sch.Types[condition]; t != nil {
		return t, append(append([]string(nil), targets...), condition)
	}
	return parentType, append(append([]string(nil), targets...), condition)
}

func (b *binder) bindField(parentType *schema.Type, s *language.Field, targets []string) (*plan.Field, *gqlerr.Error) {
	f := &plan.Field{Name: s.Name, Targets: targets}
	if s.Alias != "" && s.Alias != s.Name {
		f.OutputName = s.Alias
	}
	for _, arg := range s.Arguments {
		av, err := plan.ConvertValue(arg.Value, b.variables)
		if err != nil {
			return nil, gqlerr.AsExecution(err)
		}
		f.Arguments = append(f.Arguments, plan.Argument{Name: arg.Name, Value: av})
	}

	if s.Name == "__typename" {
		typeName := ""
		if parentType != nil {
			typeName = parentType.Name
		}
		f.Resolver = plan.Resolver{
			Kind:    plan.ResolverExtractor,
			Extract: func(value.Value) value.Value { return value.String(typeName) },
		}
		return f, nil
	}

	// Meta fields bind without schema lookup; the introspection executor
	// interprets them against the composed schema.
	if strings.HasPrefix(s.Name, "__") {
		f.Resolver = plan.ExtractField(s.Name)
		children, err := b.bindSelectionSet(nil, s.SelectionSet, nil)
		if err != nil {
			return nil, err
		}
		f.Fields = children
		return f, nil
	}

	var fieldDef *schema.Field
	if parentType != nil {
		fieldDef = parentType.Field(s.Name)
	}
	if fieldDef == nil {
		if parentType != nil {
			return nil, gqlerr.Validation("Cannot query field %q on type %q", s.Name, parentType.Name)
		}
		f.Resolver = plan.ExtractField(s.Name)
		children, err := b.bindSelectionSet(nil, s.SelectionSet, nil)
		if err != nil {
			return nil, err
		}
		f.Fields = children
		return f, nil
	}

	if fieldDef.Extend != nil {
		f.Resolver = plan.Fetch(fieldDef.Extend)
	} else {
		f.Resolver = plan.ExtractField(s.Name)
	}

	var childType *schema.Type
	if named := schema.GetNamedType(fieldDef.Type); named != "" {
		childType = b.sch.Types[named]
	}
	children, err := b.bindSelectionSet(childType, s.SelectionSet, nil)
	if err != nil {
		return nil, err
	}

	// Entity-style bindings wrap the user selection in an eliminate child so
	// the batched list result flattens back to one object per parent.
	if fieldDef.Extend != nil && fieldDef.Extend.FilterBatchResults != nil {
		f.Fields = []*plan.Field{{
			Name:      s.Name,
			Eliminate: true,
			Resolver:  plan.ExtractSelf(),
			Fields:    children,
		}}
		return f, nil
	}
	f.Fields = children
	return f, nil
}

// shouldInclude honors @skip and @include.
func (b *binder) shouldInclude(directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if b.directiveFlag(skip, "if") {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if !b.directiveFlag(include, "if") {
			return false
		}
	}
	return true
}

func (b *binder) directiveFlag(d *language.Directive, argName string) bool {
	for _, arg := range d.Arguments {
		if arg.Name != argName {
			continue
		}
		in, err := plan.ConvertValue(arg.Value, b.variables)
		if err != nil {
			return false
		}
		v := in.AsValue()
		return v.Kind == value.KindBoolean && v.Bool
	}
	return false
}
