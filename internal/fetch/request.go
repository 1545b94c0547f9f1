package fetch

import (
	"hash"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/graphmesh/graphmesh/internal/plan"
)

// Request is the data-source key for one subgraph fetch. Two requests with
// equal canonical forms share a single dispatch and promise; argument order
// within a request does not affect equality.
type Request struct {
	Subgraph  string
	FieldName string
	// Operation is "query", "mutation" or "subscription".
	Operation string
	// Fields is the plain selection fetched under FieldName.
	Fields []*plan.Field
	// Arguments of the subgraph call.
	Arguments []plan.Argument
	// Batch marks the request as coalescible with siblings that differ in a
	// single argument.
	Batch bool
}

var hash64Pool = sync.Pool{
	New: func() any {
		return xxhash.New()
	},
}

// Key returns the structural identity of the request.
func (r *Request) Key() uint64 {
	h := hash64Pool.Get().(hash.Hash64)
	h.Reset()
	_, _ = h.Write([]byte(r.canonical()))
	key := h.Sum64()
	hash64Pool.Put(h)
	return key
}

// canonical serializes every identity-relevant part of the request with
// arguments sorted by name.
func (r *Request) canonical() string {
	var b strings.Builder
	b.WriteString(r.Subgraph)
	b.WriteByte(0)
	b.WriteString(r.FieldName)
	b.WriteByte(0)
	b.WriteString(r.Operation)
	b.WriteByte(0)
	if r.Batch {
		b.WriteByte(1)
	} else {
		b.WriteByte(0)
	}
	b.WriteString(plan.RenderDocument(r.Operation, []*plan.Field{{
		Name:      r.FieldName,
		Arguments: sortedArguments(r.Arguments),
		Fields:    r.Fields,
	}}))
	return b.String()
}

func sortedArguments(args []plan.Argument) []plan.Argument {
	out := append([]plan.Argument(nil), args...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
