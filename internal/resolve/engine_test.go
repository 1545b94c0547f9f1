package resolve

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmesh/graphmesh/internal/fetch"
	"github.com/graphmesh/graphmesh/internal/plan"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/subgraph"
	"github.com/graphmesh/graphmesh/internal/value"
)

func newTestEngine(execs map[string]subgraph.Executor) *Engine {
	subgraphs := make(map[string]*subgraph.SubGraph, len(execs))
	for name, exec := range execs {
		subgraphs[name] = subgraph.New(name, nil, exec)
	}
	return NewEngine(subgraphs, fetch.NewSource(subgraphs, nil), nil)
}

func mustJSON(t *testing.T, v value.Value) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestResolve_RootPassthrough(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.String("world"))))
	engine := newTestEngine(map[string]subgraph.Executor{"accounts": exec})

	fields := []*plan.Field{{
		Name:     "hello",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "accounts", SourceField: "hello"}),
	}}
	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"hello":"world"}`, mustJSON(t, data))

	calls := exec.GetCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "query { f0: hello }", calls[0].Query)
}

func TestResolve_CrossGraphExtensionCarriesParentKey(t *testing.T) {
	exec := subgraph.NewMockExecutor(func(_ context.Context, query, _ string) (value.Value, error) {
		if strings.Contains(query, "store(") {
			return value.Object(value.Field("f0", value.Object(value.Field("id", value.Int(1))))), nil
		}
		return value.Object(value.Field("f0", value.List(
			value.Object(value.Field("id", value.Int(7))),
		))), nil
	})
	engine := newTestEngine(map[string]subgraph.Executor{"stores": exec})

	fields := []*plan.Field{{
		Name:     "store",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "stores", SourceField: "store"}),
		Arguments: []plan.Argument{
			{Name: "id", Value: value.Int(1).AsInput()},
		},
		Fields: []*plan.Field{
			{Name: "id", Resolver: plan.ExtractField("id")},
			{
				Name: "bookSells",
				Resolver: plan.Fetch(&schema.Extend{
					SourceGraph:      "stores",
					SourceField:      "bookSells",
					ArgumentMappings: []schema.ArgumentMapping{schema.MapArgument("id", "storeId")},
				}),
				Fields: []*plan.Field{{Name: "id", Resolver: plan.ExtractField("id")}},
			},
		},
	}}

	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"store":{"id":1,"bookSells":[{"id":7}]}}`, mustJSON(t, data))

	calls := exec.GetCalls()
	require.Len(t, calls, 2)
	require.Equal(t, "query { f0: store(id: 1) { id } }", calls[0].Query)
	require.Equal(t, "query { f0: bookSells(storeId: 1) { id } }", calls[1].Query)
}

// entityAuthorField builds the bound selection the binder produces for an
// entity-style extension: the user selection sits under an eliminate child.
func entityAuthorField(userFields []*plan.Field) *plan.Field {
	return &plan.Field{
		Name: "author",
		Resolver: plan.Fetch(&schema.Extend{
			SourceGraph:        "authors",
			SourceField:        "getAuthors",
			Target:             "Author",
			ArgumentMappings:   []schema.ArgumentMapping{schema.MapListArgument("authorId", "ids")},
			AdditionalFields:   []string{"id"},
			FilterBatchResults: schema.MatchField("authorId", "id"),
		}),
		Fields: []*plan.Field{{
			Name:      "author",
			Eliminate: true,
			Resolver:  plan.ExtractSelf(),
			Fields:    userFields,
		}},
	}
}

func TestResolve_EntityFetchBatchesAndNarrows(t *testing.T) {
	books := value.List(
		value.Object(value.Field("title", value.String("One")), value.Field("authorId", value.Int(1))),
		value.Object(value.Field("title", value.String("Two")), value.Field("authorId", value.Int(2))),
		value.Object(value.Field("title", value.String("Three")), value.Field("authorId", value.Int(3))),
	)
	authors := value.List(
		value.Object(value.Field("name", value.String("Ann")), value.Field("id", value.Int(1))),
		value.Object(value.Field("name", value.String("Ben")), value.Field("id", value.Int(2))),
		value.Object(value.Field("name", value.String("Cyn")), value.Field("id", value.Int(3))),
	)
	booksExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", books)))
	authorsExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", authors)))
	engine := newTestEngine(map[string]subgraph.Executor{"books": booksExec, "authors": authorsExec})

	fields := []*plan.Field{{
		Name:     "books",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "books", SourceField: "getBooks"}),
		Fields: []*plan.Field{
			{Name: "title", Resolver: plan.ExtractField("title")},
			entityAuthorField([]*plan.Field{{Name: "name", Resolver: plan.ExtractField("name")}}),
		},
	}}

	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t,
		`{"books":[{"title":"One","author":{"name":"Ann"}},{"title":"Two","author":{"name":"Ben"}},{"title":"Three","author":{"name":"Cyn"}}]}`,
		mustJSON(t, data))

	// One coalesced call resolves all three authors.
	authorCalls := authorsExec.GetCalls()
	require.Len(t, authorCalls, 1)
	require.Equal(t, "query { f0: getAuthors(ids: [1, 2, 3]) { ... on Author { name id } } }", authorCalls[0].Query)
}

func TestResolve_EntityFetchWithoutMatchYieldsNull(t *testing.T) {
	books := value.List(
		value.Object(value.Field("title", value.String("One")), value.Field("authorId", value.Int(9))),
	)
	booksExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", books)))
	authorsExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.List())))
	engine := newTestEngine(map[string]subgraph.Executor{"books": booksExec, "authors": authorsExec})

	fields := []*plan.Field{{
		Name:     "books",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "books", SourceField: "getBooks"}),
		Fields: []*plan.Field{
			entityAuthorField([]*plan.Field{{Name: "name", Resolver: plan.ExtractField("name")}}),
		},
	}}
	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"books":[{"author":null}]}`, mustJSON(t, data))
}

func TestResolve_MissingSubgraph(t *testing.T) {
	engine := newTestEngine(nil)
	fields := []*plan.Field{{
		Name:     "x",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "missing", SourceField: "x"}),
	}}
	_, gerr := engine.Resolve(context.Background(), "query", fields)
	require.NotNil(t, gerr)
	require.Equal(t, "Subgraph missing not found", gerr.Message)
}

func TestResolve_NullArgumentMappingsAreDropped(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.String("ok"))))
	engine := newTestEngine(map[string]subgraph.Executor{"accounts": exec})

	fields := []*plan.Field{{
		Name: "thing",
		Resolver: plan.Fetch(&schema.Extend{
			SourceGraph:      "accounts",
			SourceField:      "thing",
			ArgumentMappings: []schema.ArgumentMapping{schema.MapArgument("key", "arg")},
		}),
	}}
	_, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)

	calls := exec.GetCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "query { f0: thing }", calls[0].Query)
}

func TestResolve_ObjectFieldsKeepSelectionOrder(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.Object(
		value.Field("a", value.Int(1)),
		value.Field("b", value.Int(2)),
		value.Field("c", value.Int(3)),
	))))
	engine := newTestEngine(map[string]subgraph.Executor{"accounts": exec})

	fields := []*plan.Field{{
		Name:     "obj",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "accounts", SourceField: "obj"}),
		Fields: []*plan.Field{
			{Name: "c", Resolver: plan.ExtractField("c")},
			{Name: "a", Resolver: plan.ExtractField("a")},
			{Name: "b", Resolver: plan.ExtractField("b")},
		},
	}}
	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"obj":{"c":3,"a":1,"b":2}}`, mustJSON(t, data))
}

func TestResolve_AliasesUseOutputName(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.String("world"))))
	engine := newTestEngine(map[string]subgraph.Executor{"accounts": exec})

	fields := []*plan.Field{{
		Name:       "hello",
		OutputName: "greeting",
		Resolver:   plan.Fetch(&schema.Extend{SourceGraph: "accounts", SourceField: "hello"}),
	}}
	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"greeting":"world"}`, mustJSON(t, data))
}

func TestResolve_MutationSiblingsSerialize(t *testing.T) {
	var order []string
	exec := subgraph.NewMockExecutor(func(_ context.Context, query, operation string) (value.Value, error) {
		order = append(order, query)
		return value.Object(value.Field("f0", value.Boolean(true))), nil
	})
	engine := newTestEngine(map[string]subgraph.Executor{"accounts": exec})

	fields := []*plan.Field{
		{Name: "first", Resolver: plan.Fetch(&schema.Extend{SourceGraph: "accounts", SourceField: "first"})},
		{Name: "second", Resolver: plan.Fetch(&schema.Extend{SourceGraph: "accounts", SourceField: "second"})},
	}
	data, gerr := engine.Resolve(context.Background(), "mutation", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"first":true,"second":true}`, mustJSON(t, data))
	require.Equal(t, []string{"mutation { f0: first }", "mutation { f0: second }"}, order)
}

func TestResolve_NonObjectListItemsPassThrough(t *testing.T) {
	exec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.List(value.String("not-an-object")))))
	engine := newTestEngine(map[string]subgraph.Executor{"accounts": exec})

	fields := []*plan.Field{{
		Name:     "items",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "accounts", SourceField: "items"}),
		Fields:   []*plan.Field{{Name: "x", Resolver: plan.ExtractField("x")}},
	}}
	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"items":["not-an-object"]}`, mustJSON(t, data))
}

func TestResolve_NestedFetcherBehindExtractorSelectsOnlyKeys(t *testing.T) {
	booksExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", value.Object(
		value.Field("metadata", value.Object(
			value.Field("title", value.String("T")),
			value.Field("editorId", value.Int(5)),
		)),
	))))
	peopleExec := subgraph.NewMockValueExecutor(value.Object(
		value.Field("f0", value.Object(value.Field("name", value.String("Ed")))),
	))
	engine := newTestEngine(map[string]subgraph.Executor{"books": booksExec, "people": peopleExec})

	fields := []*plan.Field{{
		Name:     "book",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "books", SourceField: "book"}),
		Fields: []*plan.Field{{
			Name:     "metadata",
			Resolver: plan.ExtractField("metadata"),
			Fields: []*plan.Field{
				{Name: "title", Resolver: plan.ExtractField("title")},
				{
					Name: "editor",
					Resolver: plan.Fetch(&schema.Extend{
						SourceGraph:      "people",
						SourceField:      "person",
						ArgumentMappings: []schema.ArgumentMapping{schema.MapArgument("editorId", "id")},
					}),
					Fields: []*plan.Field{{Name: "name", Resolver: plan.ExtractField("name")}},
				},
			},
		}},
	}}

	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	require.Equal(t, `{"book":{"metadata":{"title":"T","editor":{"name":"Ed"}}}}`, mustJSON(t, data))

	// The nested fetcher's selection never leaks into the books document;
	// only the key its argument mapping reads is fetched in its place.
	bookCalls := booksExec.GetCalls()
	require.Len(t, bookCalls, 1)
	require.Equal(t, "query { f0: book { metadata { title editorId } } }", bookCalls[0].Query)

	peopleCalls := peopleExec.GetCalls()
	require.Len(t, peopleCalls, 1)
	require.Equal(t, "query { f0: person(id: 5) { name } }", peopleCalls[0].Query)
}

func TestResolve_EntityFetchMultipleMatchesWrapAsObjects(t *testing.T) {
	books := value.List(
		value.Object(value.Field("title", value.String("One")), value.Field("authorId", value.Int(1))),
	)
	authors := value.List(
		value.Object(value.Field("name", value.String("Ann")), value.Field("id", value.Int(1))),
		value.Object(value.Field("name", value.String("Ann2")), value.Field("id", value.Int(1))),
	)
	booksExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", books)))
	authorsExec := subgraph.NewMockValueExecutor(value.Object(value.Field("f0", authors)))
	engine := newTestEngine(map[string]subgraph.Executor{"books": booksExec, "authors": authorsExec})

	fields := []*plan.Field{{
		Name:     "books",
		Resolver: plan.Fetch(&schema.Extend{SourceGraph: "books", SourceField: "getBooks"}),
		Fields: []*plan.Field{
			entityAuthorField([]*plan.Field{{Name: "name", Resolver: plan.ExtractField("name")}}),
		},
	}}

	data, gerr := engine.Resolve(context.Background(), "query", fields)
	require.Nil(t, gerr)
	// Two surviving matches skip the singleton flattening and wrap each item
	// as an object, like any other list result.
	require.Equal(t,
		`{"books":[{"author":[{"author":{"name":"Ann"}},{"author":{"name":"Ann2"}}]}]}`,
		mustJSON(t, data))
}
