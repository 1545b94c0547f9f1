package compose

import (
	"fmt"
	"sort"

	"github.com/graphmesh/graphmesh/internal/schema"
)

// Visitor is a pluggable transformation over the supergraph under
// construction. Entry points fire for every type, field, argument and
// directive; Finish runs once with the whole schema and may add or remove
// definitions.
type Visitor struct {
	VisitType      func(t *schema.Type) error
	VisitField     func(owner *schema.Type, f *schema.Field) error
	VisitArgument  func(owner *schema.Type, f *schema.Field, a *schema.InputValue) error
	VisitDirective func(d *schema.Directive) error
	Finish         func(s *schema.Schema) error
}

// Apply walks the schema in deterministic order and fires the entry points.
func (v Visitor) Apply(s *schema.Schema) error {
	typeNames := make([]string, 0, len(s.Types))
	for name := range s.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)
	for _, name := range typeNames {
		t := s.Types[name]
		if v.VisitType != nil {
			if err := v.VisitType(t); err != nil {
				return err
			}
		}
		for _, f := range t.Fields {
			if v.VisitField != nil {
				if err := v.VisitField(t, f); err != nil {
					return err
				}
			}
			if v.VisitArgument != nil {
				for _, a := range f.Arguments {
					if err := v.VisitArgument(t, f, a); err != nil {
						return err
					}
				}
			}
		}
	}
	if v.VisitDirective != nil {
		directiveNames := make([]string, 0, len(s.Directives))
		for name := range s.Directives {
			directiveNames = append(directiveNames, name)
		}
		sort.Strings(directiveNames)
		for _, name := range directiveNames {
			if err := v.VisitDirective(s.Directives[name]); err != nil {
				return err
			}
		}
	}
	if v.Finish != nil {
		return v.Finish(s)
	}
	return nil
}

// ExtendField returns a visitor adding a field resolved through the given
// binding. The declaring type must exist and must not already declare the
// field.
func ExtendField(typeName, fieldName string, fieldType *schema.TypeRef, ext *schema.Extend) Visitor {
	return Visitor{Finish: func(s *schema.Schema) error {
		t := s.Types[typeName]
		if t == nil {
			return fmt.Errorf("cannot extend unknown type %s", typeName)
		}
		if t.Field(fieldName) != nil {
			return fmt.Errorf("cannot extend %s: field %s already exists", typeName, fieldName)
		}
		t.AddField(schema.NewField(fieldName, "", fieldType).SetExtend(ext))
		return nil
	}}
}

// FilterField returns a visitor removing a field from a type.
func FilterField(typeName, fieldName string) Visitor {
	return Visitor{Finish: func(s *schema.Schema) error {
		t := s.Types[typeName]
		if t == nil {
			return fmt.Errorf("cannot filter unknown type %s", typeName)
		}
		if t.Field(fieldName) == nil {
			return fmt.Errorf("cannot filter %s: field %s does not exist", typeName, fieldName)
		}
		t.RemoveField(fieldName)
		return nil
	}}
}

// RebindField returns a visitor replacing the Extend annotation on an
// existing field.
func RebindField(typeName, fieldName string, ext *schema.Extend) Visitor {
	return Visitor{Finish: func(s *schema.Schema) error {
		t := s.Types[typeName]
		if t == nil {
			return fmt.Errorf("cannot rebind unknown type %s", typeName)
		}
		f := t.Field(fieldName)
		if f == nil {
			return fmt.Errorf("cannot rebind %s: field %s does not exist", typeName, fieldName)
		}
		f.Extend = ext
		return nil
	}}
}
