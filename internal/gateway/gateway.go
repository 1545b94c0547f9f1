// Package gateway exposes the federation surface: build a gateway from
// subgraphs plus schema transformers, then execute GraphQL requests against
// the composed supergraph.
package gateway

import (
	"context"
	"time"

	"github.com/jensneuse/abstractlogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/graphmesh/graphmesh/internal/compose"
	"github.com/graphmesh/graphmesh/internal/eventbus"
	"github.com/graphmesh/graphmesh/internal/events"
	"github.com/graphmesh/graphmesh/internal/fetch"
	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/introspection"
	"github.com/graphmesh/graphmesh/internal/language"
	"github.com/graphmesh/graphmesh/internal/plan"
	"github.com/graphmesh/graphmesh/internal/resolve"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/subgraph"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Request is one inbound GraphQL request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is the GraphQL response envelope. Data marshals with fields in
// selection order.
type Response struct {
	Data   value.Value     `json:"data"`
	Errors []*gqlerr.Error `json:"errors,omitempty"`
}

// Gateway holds the composed supergraph and the subgraph handles. It is
// immutable after construction and safe to share across requests.
type Gateway struct {
	supergraph *schema.Schema
	subgraphs  map[string]*subgraph.SubGraph
	tracer     trace.Tracer
	log        abstractlogger.Logger
}

type Option func(*Gateway)

func WithLogger(log abstractlogger.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = tracer }
}

// New composes the supergraph from the subgraphs and transformers.
func New(subgraphs []*subgraph.SubGraph, visitors []compose.Visitor, opts ...Option) (*Gateway, error) {
	byName := make(map[string]*subgraph.SubGraph, len(subgraphs))
	for _, sg := range subgraphs {
		if _, dup := byName[sg.Name]; dup {
			return nil, gqlerr.Configuration("duplicate subgraph name %s", sg.Name)
		}
		byName[sg.Name] = sg
	}
	super, err := compose.Compose(subgraphs, visitors...)
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		supergraph: super,
		subgraphs:  byName,
		tracer:     otel.Tracer("graphmesh"),
		log:        abstractlogger.NoopLogger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Schema returns the composed supergraph.
func (g *Gateway) Schema() *schema.Schema { return g.supergraph }

// Execute resolves one request. Parse and bind failures surface as
// validation errors; the first resolution failure aborts the response with
// data null.
func (g *Gateway) Execute(ctx context.Context, req Request) *Response {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		if ge, ok := err.(*language.Error); ok {
			return errorResponse(&gqlerr.Error{Message: ge.Message, Kind: gqlerr.KindValidation})
		}
		return errorResponse(gqlerr.Validation("%s", err.Error()))
	}
	op := doc.Operations.ForName(req.OperationName)
	if op == nil && req.OperationName == "" && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil {
		return errorResponse(gqlerr.Validation("operation not found"))
	}

	variables := make(map[string]value.Value, len(req.Variables))
	for name, v := range req.Variables {
		variables[name] = value.FromAny(v)
	}

	fields, gerr := resolve.Bind(g.supergraph, doc, op, variables)
	if gerr != nil {
		return errorResponse(gerr)
	}

	// Introspection bypasses the federation engine: it is served from the
	// composed schema without opening a span or touching any subgraph.
	if introspection.IsIntrospection(fields) {
		return &Response{Data: introspection.Execute(g.supergraph, fields)}
	}

	operation := string(op.Operation)
	masked := plan.RenderDocument(operation, plan.MaskArguments(fields))
	ctx, span := g.tracer.Start(ctx, "query", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("query", masked))
	defer span.End()

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: operation,
	})

	source := fetch.NewSource(g.subgraphs, g.log)
	engine := resolve.NewEngine(g.subgraphs, source, g.log)
	data, gerr := engine.Resolve(ctx, operation, fields)

	var errs []error
	if gerr != nil {
		errs = []error{gerr}
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: operation,
		Errors:        errs,
		Duration:      time.Since(start),
	})

	if gerr != nil {
		span.RecordError(gerr)
		span.SetStatus(codes.Error, gerr.Message)
		g.log.Error("gateway.execute",
			abstractlogger.String("operation", operation),
			abstractlogger.Error(gerr),
		)
		return errorResponse(gerr)
	}
	return &Response{Data: data}
}

func errorResponse(err *gqlerr.Error) *Response {
	return &Response{Data: value.Null(), Errors: []*gqlerr.Error{err}}
}
