// Package subgraph defines the named handles through which the gateway
// reaches backend GraphQL services.
package subgraph

import (
	"context"

	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Executor executes a synthesized GraphQL document against one subgraph and
// returns the decoded data tree. The gateway never builds transport itself;
// it only calls this with complete documents.
type Executor interface {
	Run(ctx context.Context, query string, operation string, variables map[string]value.Value) (value.Value, error)
}

// SubGraph is one backend service participating in a supergraph.
type SubGraph struct {
	// Name must be unique within a supergraph.
	Name string
	// Schema is the introspected representation of the service's roots.
	Schema *schema.Schema
	// ExposeAtRoot controls whether the service's own root fields appear on
	// the supergraph. When false the service contributes only through extend
	// bindings.
	ExposeAtRoot bool
	// Executor carries the transport.
	Executor Executor
}

// New returns a subgraph exposed at the root.
func New(name string, sch *schema.Schema, exec Executor) *SubGraph {
	return &SubGraph{Name: name, Schema: sch, ExposeAtRoot: true, Executor: exec}
}

// HideFromRoot makes the subgraph contribute only through extend bindings.
func (s *SubGraph) HideFromRoot() *SubGraph {
	s.ExposeAtRoot = false
	return s
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, query string, operation string, variables map[string]value.Value) (value.Value, error)

func (f ExecutorFunc) Run(ctx context.Context, query string, operation string, variables map[string]value.Value) (value.Value, error) {
	return f(ctx, query, operation, variables)
}
