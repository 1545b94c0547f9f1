package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/graphmesh/graphmesh/internal/compose"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/subgraph"
	"github.com/graphmesh/graphmesh/internal/value"
)

func accountsSchema() *schema.Schema {
	root := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hello", "", schema.NamedType("String"))).
		AddField(schema.NewField("user", "", schema.NamedType("User")).
			AddArgument(schema.NewInputValue("email", "", schema.NamedType("String"))).
			AddArgument(schema.NewInputValue("age", "", schema.NamedType("Int"))))
	user := schema.NewType("User", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", schema.NamedType("String")))
	return schema.NewSchema("").WithBuiltins().SetQueryType("Query").AddType(root).AddType(user)
}

func newAccountsGateway(t *testing.T, exec subgraph.Executor, opts ...Option) *Gateway {
	t.Helper()
	gw, err := New([]*subgraph.SubGraph{subgraph.New("accounts", accountsSchema(), exec)}, nil, opts...)
	require.NoError(t, err)
	return gw
}

func responseJSON(t *testing.T, res *Response) string {
	t.Helper()
	b, err := json.Marshal(res)
	require.NoError(t, err)
	return string(b)
}

func TestExecute_RootPassthrough(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.String("world"))))
	gw := newAccountsGateway(t, exec)

	res := gw.Execute(context.Background(), Request{Query: `{ hello }`})
	require.Equal(t, `{"data":{"hello":"world"}}`, responseJSON(t, res))

	calls := exec.GetCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "query { f0: hello }", calls[0].Query)
}

func TestExecute_ParseErrorIsValidation(t *testing.T) {
	gw := newAccountsGateway(t, subgraph.NewMockValueExecutor(value.Object()))
	res := gw.Execute(context.Background(), Request{Query: `{ hello `})
	require.Len(t, res.Errors, 1)
	require.True(t, res.Data.IsNull())
}

func TestExecute_MissingSubgraph(t *testing.T) {
	gw, err := New(
		[]*subgraph.SubGraph{subgraph.New("accounts", accountsSchema(), subgraph.NewMockValueExecutor(value.Object()))},
		[]compose.Visitor{compose.RebindField("Query", "hello", &schema.Extend{SourceGraph: "missing", SourceField: "hello"})},
	)
	require.NoError(t, err)

	res := gw.Execute(context.Background(), Request{Query: `{ hello }`})
	require.Equal(t, `{"data":null,"errors":[{"message":"Subgraph missing not found"}]}`, responseJSON(t, res))
}

func TestExecute_IntrospectionBypassesSubgraphs(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object())
	gw := newAccountsGateway(t, exec)

	res := gw.Execute(context.Background(), Request{Query: `{ __schema { types { name } } }`})
	require.Empty(t, res.Errors)
	require.Empty(t, exec.GetCalls())

	body := responseJSON(t, res)
	require.Contains(t, body, `{"name":"User"}`)
}

func TestExecute_TracingMasksArguments(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	exec := subgraph.NewMockValueExecutor(value.Object(
		value.Field("f0", value.Object(value.Field("name", value.String("Ann")))),
	))
	gw := newAccountsGateway(t, exec, WithTracer(tp.Tracer("test")))

	res := gw.Execute(context.Background(), Request{Query: `{ user(email: "a@b.com", age: 42) { name } }`})
	require.Empty(t, res.Errors)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "query", span.Name())
	require.Equal(t, trace.SpanKindInternal, span.SpanKind())

	found := false
	for _, attr := range span.Attributes() {
		if string(attr.Key) == "query" {
			found = true
			require.Equal(t, `query { user(email: "", age: 0) { name } }`, attr.Value.AsString())
		}
	}
	require.True(t, found, "span carries no query attribute")
}

func TestExecute_IntrospectionOpensNoSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	gw := newAccountsGateway(t, subgraph.NewMockValueExecutor(value.Object()), WithTracer(tp.Tracer("test")))

	gw.Execute(context.Background(), Request{Query: `{ __typename }`})
	require.Empty(t, sr.Ended())
}

func TestExecute_VariablesReachSubgraphDocument(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object(
		value.Field("f0", value.Object(value.Field("name", value.String("Ann")))),
	))
	gw := newAccountsGateway(t, exec)

	res := gw.Execute(context.Background(), Request{
		Query:     `query($email: String!) { user(email: $email) { name } }`,
		Variables: map[string]any{"email": "x@y.z"},
	})
	require.Empty(t, res.Errors)

	calls := exec.GetCalls()
	require.Len(t, calls, 1)
	require.Equal(t, `query { f0: user(email: "x@y.z") { name } }`, calls[0].Query)
}

func TestExecute_EntityExtensionEndToEnd(t *testing.T) {
	booksRoot := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("books", "", schema.ListType(schema.NamedType("Book"))))
	book := schema.NewType("Book", schema.TypeKindObject, "").
		AddField(schema.NewField("title", "", schema.NamedType("String"))).
		AddField(schema.NewField("authorId", "", schema.NamedType("Int")))
	booksSchema := schema.NewSchema("").WithBuiltins().SetQueryType("Query").AddType(booksRoot).AddType(book)

	authorsRoot := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("getAuthors", "", schema.ListType(schema.NamedType("Author"))).
			AddArgument(schema.NewInputValue("ids", "", schema.ListType(schema.NamedType("Int")))))
	author := schema.NewType("Author", schema.TypeKindObject, "").
		AddField(schema.NewField("id", "", schema.NamedType("Int"))).
		AddField(schema.NewField("name", "", schema.NamedType("String")))
	authorsSchema := schema.NewSchema("").WithBuiltins().SetQueryType("Query").AddType(authorsRoot).AddType(author)

	booksExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.List(
		value.Object(value.Field("title", value.String("One")), value.Field("authorId", value.Int(1))),
		value.Object(value.Field("title", value.String("Two")), value.Field("authorId", value.Int(2))),
	))))
	authorsExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.List(
		value.Object(value.Field("name", value.String("Ann")), value.Field("id", value.Int(1))),
		value.Object(value.Field("name", value.String("Ben")), value.Field("id", value.Int(2))),
	))))

	gw, err := New(
		[]*subgraph.SubGraph{
			subgraph.New("books", booksSchema, booksExec),
			subgraph.New("authors", authorsSchema, authorsExec).HideFromRoot(),
		},
		[]compose.Visitor{compose.ExtendField("Book", "author", schema.NamedType("Author"), &schema.Extend{
			SourceGraph:        "authors",
			SourceField:        "getAuthors",
			Target:             "Author",
			ArgumentMappings:   []schema.ArgumentMapping{schema.MapListArgument("authorId", "ids")},
			AdditionalFields:   []string{"id"},
			FilterBatchResults: schema.MatchField("authorId", "id"),
		})},
	)
	require.NoError(t, err)

	res := gw.Execute(context.Background(), Request{Query: `{ books { title author { name } } }`})
	require.Empty(t, res.Errors)
	require.Equal(t,
		`{"data":{"books":[{"title":"One","author":{"name":"Ann"}},{"title":"Two","author":{"name":"Ben"}}]}}`,
		responseJSON(t, res))

	require.Len(t, booksExec.GetCalls(), 1)
	authorCalls := authorsExec.GetCalls()
	require.Len(t, authorCalls, 1)
	require.Equal(t, "query { f0: getAuthors(ids: [1, 2]) { ... on Author { name id } } }", authorCalls[0].Query)
}

func TestNew_DuplicateSubgraphNameFails(t *testing.T) {
	_, err := New([]*subgraph.SubGraph{
		subgraph.New("accounts", accountsSchema(), nil),
		subgraph.New("accounts", accountsSchema(), nil),
	}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate subgraph name")
}
