// Package fetch implements the per-request batching data source. Requests
// gather between scheduling points; a dispatch groups everything pending by
// (subgraph, operation), synthesizes one document per group, and fans the
// demultiplexed results back out to the waiting promises.
package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/jensneuse/abstractlogger"

	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/plan"
	"github.com/graphmesh/graphmesh/internal/subgraph"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Promise is the eventual result of an enqueued request. It is fulfilled
// during Dispatch; Get before dispatch is an error.
type Promise struct {
	val  value.Value
	err  error
	done bool
}

func (p *Promise) fulfill(v value.Value, err error) {
	if p.done {
		return
	}
	p.val, p.err, p.done = v, err, true
}

// Get returns the dispatched result.
func (p *Promise) Get() (value.Value, error) {
	if !p.done {
		return value.Null(), gqlerr.Execution("fetch promise read before dispatch")
	}
	return p.val, p.err
}

type entry struct {
	req     *Request
	promise *Promise
}

// Source is a per-request data source. It is not safe for concurrent use;
// the resolver drives it single-threaded and alternates gather and dispatch
// phases.
type Source struct {
	subgraphs map[string]*subgraph.SubGraph
	log       abstractlogger.Logger

	pending []*entry
	byKey   map[uint64]*entry
}

// NewSource creates a data source over the given subgraphs.
func NewSource(subgraphs map[string]*subgraph.SubGraph, log abstractlogger.Logger) *Source {
	if log == nil {
		log = abstractlogger.NoopLogger
	}
	return &Source{
		subgraphs: subgraphs,
		log:       log,
		byKey:     make(map[uint64]*entry),
	}
}

// Enqueue registers a request for the next dispatch and returns its promise.
// Requests equal under Request.Key share one promise within the batch window.
func (s *Source) Enqueue(req *Request) *Promise {
	key := req.Key()
	if e, ok := s.byKey[key]; ok {
		return e.promise
	}
	e := &entry{req: req, promise: &Promise{}}
	s.byKey[key] = e
	s.pending = append(s.pending, e)
	return e.promise
}

// Pending reports whether any request awaits dispatch.
func (s *Source) Pending() bool { return len(s.pending) > 0 }

// dispatchItem is one top-level selection of a synthesized document. A
// coalesced item carries the promises of every member request.
type dispatchItem struct {
	req          *Request
	promises     []*Promise
	coalescedArg string
	coalescedVal []value.Value
}

// Dispatch flushes everything gathered since the previous dispatch. Every
// pending promise is fulfilled or failed before it returns.
func (s *Source) Dispatch(ctx context.Context) {
	if len(s.pending) == 0 {
		return
	}
	entries := s.pending
	s.pending = nil
	s.byKey = make(map[uint64]*entry)

	items := coalesce(entries)

	var mutations []*dispatchItem
	queryGroups := map[string][]*dispatchItem{}
	var groupOrder []string
	for _, item := range items {
		if item.req.Operation == "mutation" {
			mutations = append(mutations, item)
			continue
		}
		gk := item.req.Subgraph + "\x00" + item.req.Operation
		if _, ok := queryGroups[gk]; !ok {
			groupOrder = append(groupOrder, gk)
		}
		queryGroups[gk] = append(queryGroups[gk], item)
	}

	// Mutations dispatch sequentially in input order, each awaited before
	// the next is issued.
	for _, item := range mutations {
		if err := ctx.Err(); err != nil {
			failItem(item, gqlerr.AsExecution(err))
			continue
		}
		s.runGroup(ctx, item.req.Subgraph, item.req.Operation, []*dispatchItem{item})
	}

	// Query and subscription groups batch their items into one document per
	// subgraph and run concurrently across subgraphs.
	var wg sync.WaitGroup
	for _, gk := range groupOrder {
		group := queryGroups[gk]
		wg.Add(1)
		go func(group []*dispatchItem) {
			defer wg.Done()
			s.runGroup(ctx, group[0].req.Subgraph, group[0].req.Operation, group)
		}(group)
	}
	wg.Wait()
}

// runGroup synthesizes one document for the group, executes it, and
// demultiplexes the response by alias.
func (s *Source) runGroup(ctx context.Context, subgraphName, operation string, group []*dispatchItem) {
	sg, ok := s.subgraphs[subgraphName]
	if !ok {
		err := gqlerr.Execution("Subgraph %s not found", subgraphName)
		for _, item := range group {
			failItem(item, err)
		}
		return
	}

	fields := make([]*plan.Field, len(group))
	for i, item := range group {
		fields[i] = &plan.Field{
			Name:       item.req.FieldName,
			OutputName: fmt.Sprintf("f%d", i),
			Arguments:  item.arguments(),
			Fields:     item.req.Fields,
		}
	}
	doc := plan.RenderDocument(operation, fields)
	s.log.Debug("fetch.dispatch",
		abstractlogger.String("subgraph", subgraphName),
		abstractlogger.String("operation", operation),
		abstractlogger.Int("selections", len(group)),
	)

	res, err := sg.Executor.Run(ctx, doc, operation, nil)
	if err != nil {
		ge := gqlerr.AsExecution(err)
		for _, item := range group {
			failItem(item, ge)
		}
		return
	}
	if res.Kind != value.KindObject {
		ge := gqlerr.Execution("subgraph %s returned a non-object response", subgraphName)
		for _, item := range group {
			failItem(item, ge)
		}
		return
	}
	for i, item := range group {
		v, _ := res.Get(fmt.Sprintf("f%d", i))
		for _, p := range item.promises {
			p.fulfill(v, nil)
		}
	}
}

func failItem(item *dispatchItem, err *gqlerr.Error) {
	for _, p := range item.promises {
		p.fulfill(value.Null(), err)
	}
}

// arguments returns the item's call arguments, substituting the coalesced
// list when members merged on one argument.
func (item *dispatchItem) arguments() []plan.Argument {
	if item.coalescedArg == "" {
		return item.req.Arguments
	}
	out := make([]plan.Argument, len(item.req.Arguments))
	for i, a := range item.req.Arguments {
		if a.Name == item.coalescedArg {
			out[i] = plan.Argument{Name: a.Name, Value: value.List(item.coalescedVal...).AsInput()}
		} else {
			out[i] = a
		}
	}
	return out
}

// coalesce folds batch-enabled entries that differ in a single argument into
// one item whose argument is the merged list. Every member promise receives
// the full list result; per-parent narrowing is the resolver's concern.
func coalesce(entries []*entry) []*dispatchItem {
	var items []*dispatchItem
	for _, e := range entries {
		if !e.req.Batch {
			items = append(items, &dispatchItem{req: e.req, promises: []*Promise{e.promise}})
			continue
		}
		merged := false
		for _, item := range items {
			if !item.req.Batch {
				continue
			}
			argName, ok := singleDifferingArgument(item.req, e.req)
			if !ok {
				continue
			}
			if item.coalescedArg != "" && item.coalescedArg != argName {
				continue
			}
			if item.coalescedArg == "" {
				base, _ := argumentValue(item.req.Arguments, argName)
				item.coalescedArg = argName
				item.coalescedVal = mergeValues(nil, base)
			}
			next, _ := argumentValue(e.req.Arguments, argName)
			item.coalescedVal = mergeValues(item.coalescedVal, next)
			item.promises = append(item.promises, e.promise)
			merged = true
			break
		}
		if !merged {
			items = append(items, &dispatchItem{req: e.req, promises: []*Promise{e.promise}})
		}
	}
	return items
}

// singleDifferingArgument reports the one argument name whose values differ
// between two otherwise-identical batchable requests.
func singleDifferingArgument(a, b *Request) (string, bool) {
	if a.Subgraph != b.Subgraph || a.FieldName != b.FieldName || a.Operation != b.Operation {
		return "", false
	}
	if plan.RenderDocument("query", a.Fields) != plan.RenderDocument("query", b.Fields) {
		return "", false
	}
	as, bs := sortedArguments(a.Arguments), sortedArguments(b.Arguments)
	if len(as) != len(bs) {
		return "", false
	}
	diff := ""
	for i := range as {
		if as[i].Name != bs[i].Name {
			return "", false
		}
		if !value.Equal(as[i].Value.AsValue(), bs[i].Value.AsValue()) {
			if diff != "" {
				return "", false
			}
			diff = as[i].Name
		}
	}
	if diff == "" {
		return "", false
	}
	return diff, true
}

func argumentValue(args []plan.Argument, name string) (value.Input, bool) {
	for _, a := range args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return value.Null().AsInput(), false
}

// mergeValues appends v (or its list items) to dst, dropping structural
// duplicates.
func mergeValues(dst []value.Value, in value.Input) []value.Value {
	v := in.AsValue()
	var add []value.Value
	if v.Kind == value.KindList {
		add = v.Items
	} else {
		add = []value.Value{v}
	}
next:
	for _, nv := range add {
		for _, have := range dst {
			if value.Equal(have, nv) {
				continue next
			}
		}
		dst = append(dst, nv)
	}
	return dst
}
