package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmesh/graphmesh/internal/compose"
	"github.com/graphmesh/graphmesh/internal/language"
	"github.com/graphmesh/graphmesh/internal/plan"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/subgraph"
	"github.com/graphmesh/graphmesh/internal/value"
)

func testSupergraph(t *testing.T, visitors ...compose.Visitor) *schema.Schema {
	t.Helper()
	root := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hello", "", schema.NamedType("String"))).
		AddField(schema.NewField("user", "", schema.NamedType("User")).
			AddArgument(schema.NewInputValue("email", "", schema.NamedType("String"))))
	user := schema.NewType("User", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", schema.NamedType("String"))).
		AddField(schema.NewField("age", "", schema.NamedType("Int")))
	sch := schema.NewSchema("").WithBuiltins().SetQueryType("Query").AddType(root).AddType(user)

	super, err := compose.Compose([]*subgraph.SubGraph{subgraph.New("accounts", sch, nil)}, visitors...)
	require.NoError(t, err)
	return super
}

func mustBind(t *testing.T, sch *schema.Schema, query string, variables map[string]value.Value) []*plan.Field {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	fields, gerr := Bind(sch, doc, doc.Operations[0], variables)
	require.Nil(t, gerr)
	return fields
}

func TestBind_RootFieldsBecomeFetchers(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super, `{ hello }`, nil)

	require.Len(t, fields, 1)
	require.Equal(t, plan.ResolverFetcher, fields[0].Resolver.Kind)
	require.Equal(t, "accounts", fields[0].Resolver.Extend.SourceGraph)
	require.Equal(t, "hello", fields[0].Resolver.Extend.SourceField)
}

func TestBind_NestedFieldsBecomeExtractors(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super, `{ user(email: "a@b.com") { name age } }`, nil)

	user := fields[0]
	require.Equal(t, plan.ResolverFetcher, user.Resolver.Kind)
	require.Len(t, user.Fields, 2)
	require.Equal(t, plan.ResolverExtractor, user.Fields[0].Resolver.Kind)
	require.Equal(t, "name", user.Fields[0].Name)
	require.Equal(t, plan.ResolverExtractor, user.Fields[1].Resolver.Kind)
}

func TestBind_AliasAndArguments(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super, `{ me: user(email: "a@b.com") { name } }`, nil)

	require.Equal(t, "user", fields[0].Name)
	require.Equal(t, "me", fields[0].Out())
	av, ok := fields[0].Argument("email")
	require.True(t, ok)
	require.Equal(t, value.String("a@b.com"), av.AsValue())
}

func TestBind_VariablesSubstitute(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super,
		`query($email: String!) { user(email: $email) { name } }`,
		map[string]value.Value{"email": value.String("x@y.z")})

	av, ok := fields[0].Argument("email")
	require.True(t, ok)
	require.Equal(t, value.String("x@y.z"), av.AsValue())
}

func TestBind_UnboundVariableStaysReference(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super, `query($email: String!) { user(email: $email) { name } }`, nil)

	av, ok := fields[0].Argument("email")
	require.True(t, ok)
	require.Equal(t, value.KindVariable, av.AsValue().Kind)
}

func TestBind_FragmentsFlatten(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super, `
		{ user(email: "e") { ...names } }
		fragment names on User { name }
	`, nil)

	require.Len(t, fields[0].Fields, 1)
	require.Equal(t, "name", fields[0].Fields[0].Name)
}

func TestBind_SkipAndInclude(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super, `
		{ user(email: "e") {
			name @skip(if: true)
			age @include(if: true)
		} }
	`, nil)

	require.Len(t, fields[0].Fields, 1)
	require.Equal(t, "age", fields[0].Fields[0].Name)
}

func TestBind_TypenameResolvesLocally(t *testing.T) {
	super := testSupergraph(t)
	fields := mustBind(t, super, `{ user(email: "e") { __typename name } }`, nil)

	tn := fields[0].Fields[0]
	require.Equal(t, "__typename", tn.Name)
	require.Equal(t, plan.ResolverExtractor, tn.Resolver.Kind)
	require.Equal(t, value.String("User"), tn.Resolver.Extract(value.Object()))
}

func TestBind_UnknownFieldFails(t *testing.T) {
	super := testSupergraph(t)
	doc, err := language.ParseQuery(`{ nope }`)
	require.NoError(t, err)
	_, gerr := Bind(super, doc, doc.Operations[0], nil)
	require.NotNil(t, gerr)
	require.Contains(t, gerr.Message, "nope")
}

func TestBind_EntityExtendWrapsSelectionInEliminateChild(t *testing.T) {
	ext := &schema.Extend{
		SourceGraph:        "authors",
		SourceField:        "getAuthors",
		Target:             "Author",
		ArgumentMappings:   []schema.ArgumentMapping{schema.MapListArgument("authorId", "ids")},
		AdditionalFields:   []string{"id"},
		FilterBatchResults: schema.MatchField("authorId", "id"),
	}
	super := testSupergraph(t, compose.ExtendField("User", "favoriteAuthor", schema.NamedType("Author"), ext))

	fields := mustBind(t, super, `{ user(email: "e") { favoriteAuthor { name } } }`, nil)
	fav := fields[0].Fields[0]
	require.Equal(t, plan.ResolverFetcher, fav.Resolver.Kind)
	require.Len(t, fav.Fields, 1)
	wrapper := fav.Fields[0]
	require.True(t, wrapper.Eliminate)
	require.Len(t, wrapper.Fields, 1)
	require.Equal(t, "name", wrapper.Fields[0].Name)
}

func TestBind_UnsupportedOperationFails(t *testing.T) {
	super := testSupergraph(t)
	doc, err := language.ParseQuery(`mutation { bump }`)
	require.NoError(t, err)
	_, gerr := Bind(super, doc, doc.Operations[0], nil)
	require.NotNil(t, gerr)
	require.Contains(t, gerr.Message, "mutation")
}
