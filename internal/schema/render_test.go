package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRender_SupergraphSDL(t *testing.T) {
	sch := NewSchema("").WithBuiltins().SetQueryType("Query")
	sch.AddType(NewType("Query", TypeKindObject, "").
		AddField(NewField("store", "", NamedType("Store")).
			AddArgument(NewInputValue("id", "", NonNullType(NamedType("Int")))).
			SetExtend(&Extend{SourceGraph: "stores", SourceField: "store"})))
	sch.AddType(NewType("Store", TypeKindObject, "").
		AddField(NewField("id", "", NamedType("Int"))).
		AddField(NewField("tags", "", ListType(NamedType("String")))))

	want := `schema {
  query: Query
}

type Query {
  store(id: Int!): Store @resolve(graph: "stores", field: "store")
}

type Store {
  id: Int
  tags: [String]
}
`
	got := Render(sch)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("SDL mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_EnumAndUnion(t *testing.T) {
	sch := NewSchema("").WithBuiltins()
	sch.AddType(NewType("Direction", TypeKindEnum, "").
		AddEnumValue(NewEnumValue("ASC", "")).
		AddEnumValue(NewEnumValue("DESC", "")))
	sch.AddType(NewType("Entity", TypeKindUnion, "").
		AddPossibleType("Book").
		AddPossibleType("Author"))

	want := `enum Direction {
  ASC
  DESC
}

union Entity = Book | Author
`
	got := Render(sch)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("SDL mismatch (-want +got):\n%s", diff)
	}
}
