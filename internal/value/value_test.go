package value

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestObject_PreservesInsertionOrder(t *testing.T) {
	obj := Object(
		Field("zebra", Int(1)),
		Field("alpha", Int(2)),
		Field("mid", Int(3)),
	)
	got, err := json.Marshal(obj)
	require.NoError(t, err)
	require.Equal(t, `{"zebra":1,"alpha":2,"mid":3}`, string(got))
}

func TestObject_SetReplacesInPlace(t *testing.T) {
	obj := Object(Field("a", Int(1)), Field("b", Int(2)))
	obj.Set("a", Int(9))
	got, err := json.Marshal(obj)
	require.NoError(t, err)
	require.Equal(t, `{"a":9,"b":2}`, string(got))
}

func TestFromJSON_PreservesKeyOrder(t *testing.T) {
	data := []byte(`{"b": 1, "a": {"x": "y"}, "l": [1, 2.5, true, null]}`)
	v, err := FromJSON(data)
	require.NoError(t, err)

	want := Object(
		Field("b", Int(1)),
		Field("a", Object(Field("x", String("y")))),
		Field("l", List(Int(1), Float(2.5), Boolean(true), Null())),
	)
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	data := []byte(`{"hello":"world","n":42,"nested":{"ok":false}}`)
	v, err := FromJSON(data)
	require.NoError(t, err)
	got, err := json.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, string(data), string(got))
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"ints", Int(1), Int(1), true},
		{"int vs float", Int(1), Float(1), false},
		{"strings", String("x"), String("x"), true},
		{"string vs enum", String("X"), Enum("X"), false},
		{"null vs zero", Null(), Value{}, true},
		{"lists", List(Int(1), Int(2)), List(Int(1), Int(2)), true},
		{"list order", List(Int(1), Int(2)), List(Int(2), Int(1)), false},
		{"objects", Object(Field("a", Int(1))), Object(Field("a", Int(1))), true},
		{"object field order", Object(Field("a", Int(1)), Field("b", Int(2))), Object(Field("b", Int(2)), Field("a", Int(1))), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Equal(tc.a, tc.b))
		})
	}
}

func TestConversionIsTotal(t *testing.T) {
	v := Object(Field("a", List(Int(1), String("x"))))
	require.True(t, Equal(v, v.AsInput().AsValue()))
}

func TestFromAny_SortsMapKeys(t *testing.T) {
	v := FromAny(map[string]any{"b": 2.0, "a": 1.0})
	want := Object(Field("a", Int(1)), Field("b", Int(2)))
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestFromAny_IntegralFloatsBecomeInt(t *testing.T) {
	require.Equal(t, Int(42), FromAny(42.0))
	require.Equal(t, Float(42.5), FromAny(42.5))
}
