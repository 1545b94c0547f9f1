// Package plan models the bound selection tree the gateway resolves: fields
// with output aliases, arguments, type targets, and a resolver binding that
// routes each field either to an in-process projection or to a subgraph
// fetch.
package plan

import (
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Field is one node of a selection tree.
type Field struct {
	// Name is the field name on the subgraph.
	Name string
	// OutputName is the response alias; empty means Name.
	OutputName string
	// Arguments in selection order.
	Arguments []Argument
	// Fields are the child selections in selection order.
	Fields []*Field
	// Targets optionally narrows this selection to concrete type names.
	Targets []string
	// Eliminate unwraps a singleton list produced by the parent fetch when
	// this field is the sole child selection.
	Eliminate bool
	// Resolver is bound from the supergraph's Extend annotations when the
	// operation is bound; plain fields inside a synthesized sub-query carry
	// none.
	Resolver Resolver
}

// Argument is a named input value on a field.
type Argument struct {
	Name  string
	Value value.Input
}

// Out returns the response key for the field.
func (f *Field) Out() string {
	if f.OutputName != "" {
		return f.OutputName
	}
	return f.Name
}

// Argument returns the named argument value.
func (f *Field) Argument(name string) (value.Input, bool) {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return value.Input{Kind: value.KindNull}, false
}

// ResolverKind tags the resolver variants. Dispatch is by tag match so the
// hot path stays predictable.
type ResolverKind int

const (
	// ResolverNone marks an unbound field (root input, synthesized sub-queries).
	ResolverNone ResolverKind = iota
	// ResolverExtractor projects the value out of the parent object without I/O.
	ResolverExtractor
	// ResolverFetcher obtains the value through a subgraph call described by
	// an Extend binding.
	ResolverFetcher
)

// Resolver is the tagged union of the two resolution strategies.
type Resolver struct {
	Kind    ResolverKind
	Extract func(parent value.Value) value.Value
	Extend  *schema.Extend
}

// ExtractField returns an extractor projecting the named field of the parent.
func ExtractField(name string) Resolver {
	return Resolver{
		Kind: ResolverExtractor,
		Extract: func(parent value.Value) value.Value {
			v, _ := parent.Get(name)
			return v
		},
	}
}

// ExtractSelf returns an extractor yielding the parent object itself.
func ExtractSelf() Resolver {
	return Resolver{
		Kind:    ResolverExtractor,
		Extract: func(parent value.Value) value.Value { return parent },
	}
}

// Fetch returns a fetcher resolver for the given binding.
func Fetch(e *schema.Extend) Resolver {
	return Resolver{Kind: ResolverFetcher, Extend: e}
}
