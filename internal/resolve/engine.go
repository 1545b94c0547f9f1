// Package resolve walks a bound selection tree and produces the response
// value. Sibling fetches gather into the data source and are dispatched in
// rounds: the engine expands extractors synchronously, suspends fetchers at
// the dispatch boundary, and resumes their completions until no work
// remains. Mutations resolve their root fields strictly left to right.
package resolve

import (
	"context"

	"github.com/jensneuse/abstractlogger"

	"github.com/graphmesh/graphmesh/internal/fetch"
	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/plan"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/subgraph"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Engine resolves one request. It is single-use and not safe for concurrent
// use; construct a new one per request around a fresh data source.
type Engine struct {
	source    *fetch.Source
	subgraphs map[string]*subgraph.SubGraph
	operation string
	log       abstractlogger.Logger
	tasks     []*task
}

// task is a fetcher suspended at a dispatch boundary.
type task struct {
	field   *plan.Field
	parent  value.Value
	promise *fetch.Promise
	slot    *node
}

// NewEngine creates an engine over the given subgraphs and data source.
func NewEngine(subgraphs map[string]*subgraph.SubGraph, source *fetch.Source, log abstractlogger.Logger) *Engine {
	if log == nil {
		log = abstractlogger.NoopLogger
	}
	return &Engine{source: source, subgraphs: subgraphs, log: log}
}

// Resolve executes the root selection for the given operation type and
// returns the response data. The first resolution failure aborts the whole
// response.
func (e *Engine) Resolve(ctx context.Context, operation string, fields []*plan.Field) (value.Value, *gqlerr.Error) {
	e.operation = operation
	root := &node{}
	slots := root.object(outputNames(fields))

	if operation == "mutation" {
		// Mutation siblings serialize: each root field's entire subtree
		// completes before the next field starts.
		for i, f := range fields {
			if err := e.startField(f, value.Null(), slots[i]); err != nil {
				return value.Null(), err
			}
			if err := e.drain(ctx); err != nil {
				return value.Null(), err
			}
		}
	} else {
		for i, f := range fields {
			if err := e.startField(f, value.Null(), slots[i]); err != nil {
				return value.Null(), err
			}
		}
		if err := e.drain(ctx); err != nil {
			return value.Null(), err
		}
	}
	return root.materialize(), nil
}

// drain alternates gather and dispatch phases until no fetch is suspended.
func (e *Engine) drain(ctx context.Context) *gqlerr.Error {
	for len(e.tasks) > 0 {
		tasks := e.tasks
		e.tasks = nil
		e.log.Debug("resolve.dispatch", abstractlogger.Int("tasks", len(tasks)))
		e.source.Dispatch(ctx)
		for _, t := range tasks {
			res, err := t.promise.Get()
			if err != nil {
				return gqlerr.AsExecution(err)
			}
			if gerr := e.completeFetch(t, res); gerr != nil {
				return gerr
			}
		}
	}
	return nil
}

// startField resolves one selection against its parent value. Extractors
// expand in place; fetchers enqueue a request and suspend until the next
// dispatch.
func (e *Engine) startField(f *plan.Field, parent value.Value, slot *node) *gqlerr.Error {
	switch f.Resolver.Kind {
	case plan.ResolverExtractor:
		v := value.Null()
		if parent.Kind == value.KindObject {
			v = f.Resolver.Extract(parent)
		}
		if v.Kind == value.KindObject && len(f.Fields) > 0 {
			return e.resolveObject(f.Fields, v, slot)
		}
		slot.setLeaf(v)
		return nil

	case plan.ResolverFetcher:
		ext := f.Resolver.Extend
		if _, ok := e.subgraphs[ext.SourceGraph]; !ok {
			return gqlerr.Execution("Subgraph %s not found", ext.SourceGraph)
		}
		req := &fetch.Request{
			Subgraph:  ext.SourceGraph,
			FieldName: ext.SourceField,
			Operation: e.operation,
			Fields:    fetchSelection(f, ext),
			Arguments: fetchArguments(f, ext, parent),
			Batch:     ext.Batch(),
		}
		e.tasks = append(e.tasks, &task{field: f, parent: parent, promise: e.source.Enqueue(req), slot: slot})
		return nil
	}
	return gqlerr.Execution("field %s has no resolver", f.Name)
}

// resolveObject fills slot with one entry per selection, in selection order.
func (e *Engine) resolveObject(fields []*plan.Field, parent value.Value, slot *node) *gqlerr.Error {
	slots := slot.object(outputNames(fields))
	for i, f := range fields {
		if err := e.startField(f, parent, slots[i]); err != nil {
			return err
		}
	}
	return nil
}

// completeFetch resumes a suspended fetcher with the subgraph result.
func (e *Engine) completeFetch(t *task, res value.Value) *gqlerr.Error {
	f := t.field
	ext := f.Resolver.Extend

	if res.Kind == value.KindList && ext.FilterBatchResults != nil {
		parent := t.parent
		if parent.Kind != value.KindObject {
			parent = value.Object()
		}
		filtered := []value.Value{}
		for _, item := range res.Items {
			if ext.FilterBatchResults(parent, item) {
				filtered = append(filtered, item)
			}
		}
		res = value.List(filtered...)
	}

	// Entity-fetch flattening: a sole eliminate child unwraps the singleton
	// list that batching introduced. Non-singleton results fall through to
	// the generic list path and wrap each item as an object.
	if len(f.Fields) == 1 && f.Fields[0].Eliminate {
		if res.Kind != value.KindList {
			return e.startField(f.Fields[0], res, t.slot)
		}
		switch len(res.Items) {
		case 0:
			t.slot.setLeaf(value.Null())
			return nil
		case 1:
			return e.startField(f.Fields[0], res.Items[0], t.slot)
		}
	}

	if res.Kind == value.KindList {
		slots := t.slot.list(len(res.Items))
		for i, item := range res.Items {
			if len(f.Fields) == 0 || item.Kind != value.KindObject {
				slots[i].setLeaf(item)
				continue
			}
			if err := e.resolveObject(f.Fields, item, slots[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if len(f.Fields) == 0 || res.Kind != value.KindObject {
		t.slot.setLeaf(res)
		return nil
	}
	return e.resolveObject(f.Fields, res, t.slot)
}

// fetchSelection lowers the fetcher's children to the plain selection sent
// to the subgraph. A sole eliminate child contributes its own children.
// Additional fields from the binding are appended, and the target type
// annotates every selected field.
func fetchSelection(f *plan.Field, ext *schema.Extend) []*plan.Field {
	children := f.Fields
	if len(children) == 1 && children[0].Eliminate {
		children = children[0].Fields
	}

	out := lowerSelection(children)
	seen := map[string]bool{}
	for _, pf := range out {
		seen[pf.Name] = true
	}
	for _, name := range ext.AdditionalFields {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, &plan.Field{Name: name})
	}
	if ext.Target != "" {
		for _, pf := range out {
			pf.Targets = []string{ext.Target}
		}
	}
	return out
}

// lowerSelection strips resolver bindings from a bound selection, cutting at
// fetchers on every level: a nested fetcher's own selection belongs to its
// subgraph, so only the parent keys its argument mappings read are selected
// in its place.
func lowerSelection(fields []*plan.Field) []*plan.Field {
	var out []*plan.Field
	seen := map[string]bool{}
	add := func(pf *plan.Field) {
		if pf.OutputName == "" && seen[pf.Name] {
			return
		}
		seen[pf.Name] = true
		out = append(out, pf)
	}

	for _, f := range fields {
		if f.Resolver.Kind == plan.ResolverFetcher {
			for _, m := range f.Resolver.Extend.ArgumentMappings {
				add(&plan.Field{Name: m.ParentKey})
			}
			continue
		}
		add(&plan.Field{
			Name:       f.Name,
			OutputName: f.OutputName,
			Arguments:  f.Arguments,
			Targets:    f.Targets,
			Fields:     lowerSelection(f.Fields),
		})
	}
	return out
}

// fetchArguments combines the selection's own arguments with those derived
// from the parent object; mappings producing null are dropped.
func fetchArguments(f *plan.Field, ext *schema.Extend, parent value.Value) []plan.Argument {
	args := append([]plan.Argument(nil), f.Arguments...)
	parentObj := parent
	if parentObj.Kind != value.KindObject {
		parentObj = value.Object()
	}
	for _, m := range ext.ArgumentMappings {
		pv, _ := parentObj.Get(m.ParentKey)
		name, av := m.Map(pv.AsInput())
		if av.IsNull() {
			continue
		}
		args = append(args, plan.Argument{Name: name, Value: av})
	}
	return args
}

func outputNames(fields []*plan.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Out()
	}
	return names
}
