package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmesh/graphmesh/internal/value"
)

func TestMapArgument(t *testing.T) {
	m := MapArgument("id", "storeId")
	require.Equal(t, "id", m.ParentKey)
	name, v := m.Map(value.Int(1).AsInput())
	require.Equal(t, "storeId", name)
	require.Equal(t, value.Int(1), v.AsValue())
}

func TestMapListArgument_WrapsSingleton(t *testing.T) {
	m := MapListArgument("authorId", "ids")
	name, v := m.Map(value.Int(7).AsInput())
	require.Equal(t, "ids", name)
	require.True(t, value.Equal(value.List(value.Int(7)), v.AsValue()))
}

func TestMapListArgument_NullStaysNull(t *testing.T) {
	m := MapListArgument("authorId", "ids")
	_, v := m.Map(value.Null().AsInput())
	require.True(t, v.IsNull())
}

func TestMatchField(t *testing.T) {
	filter := MatchField("authorId", "id")
	parent := value.Object(value.Field("authorId", value.Int(1)))
	require.True(t, filter(parent, value.Object(value.Field("id", value.Int(1)))))
	require.False(t, filter(parent, value.Object(value.Field("id", value.Int(2)))))
	require.False(t, filter(parent, value.Object()))
	require.False(t, filter(value.Object(), value.Object(value.Field("id", value.Int(1)))))
}

func TestExtendBatch(t *testing.T) {
	require.False(t, (&Extend{}).Batch())
	require.False(t, (*Extend)(nil).Batch())
	require.True(t, (&Extend{FilterBatchResults: MatchField("a", "b")}).Batch())
}
