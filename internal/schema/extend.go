package schema

import "github.com/graphmesh/graphmesh/internal/value"

// Extend binds a supergraph field to the subgraph field that resolves it.
// A field carrying an Extend is resolved entirely by SourceGraph; nested
// selections may route back to other subgraphs through their own bindings.
type Extend struct {
	// SourceGraph names the subgraph that owns the field.
	SourceGraph string
	// SourceField is the field to invoke on that subgraph.
	SourceField string
	// Target optionally names the concrete type for entity-style resolution;
	// the fetched selection set is narrowed to it.
	Target string
	// ArgumentMappings derive subgraph call arguments from the parent object,
	// in declaration order. Mappings producing null are dropped from the call.
	ArgumentMappings []ArgumentMapping
	// AdditionalFields are fetched alongside the selection so that
	// FilterBatchResults has the keys it needs.
	AdditionalFields []string
	// FilterBatchResults re-associates batched list results with parents.
	// Setting it marks the fetch as batchable.
	FilterBatchResults FilterFunc
}

// ArgumentMapping turns the parent object's value at ParentKey into one
// argument of the subgraph call.
type ArgumentMapping struct {
	ParentKey string
	Map       func(value.Input) (string, value.Input)
}

// FilterFunc decides whether a batched candidate belongs to the parent.
type FilterFunc func(parent, candidate value.Value) bool

// Batch reports whether fetches for this binding may be coalesced.
func (e *Extend) Batch() bool { return e != nil && e.FilterBatchResults != nil }

// MapArgument maps the parent value at parentKey unchanged to argName.
func MapArgument(parentKey, argName string) ArgumentMapping {
	return ArgumentMapping{
		ParentKey: parentKey,
		Map: func(in value.Input) (string, value.Input) {
			return argName, in
		},
	}
}

// MapListArgument maps the parent value at parentKey to argName wrapped in a
// singleton list, so equal fetches can coalesce their lists into one call.
func MapListArgument(parentKey, argName string) ArgumentMapping {
	return ArgumentMapping{
		ParentKey: parentKey,
		Map: func(in value.Input) (string, value.Input) {
			if in.IsNull() {
				return argName, in
			}
			return argName, value.List(in.AsValue()).AsInput()
		},
	}
}

// MatchField returns a FilterFunc matching candidate[candidateKey] against
// parent[parentKey].
func MatchField(parentKey, candidateKey string) FilterFunc {
	return func(parent, candidate value.Value) bool {
		pv, ok := parent.Get(parentKey)
		if !ok {
			return false
		}
		cv, ok := candidate.Get(candidateKey)
		if !ok {
			return false
		}
		return value.Equal(pv, cv)
	}
}
