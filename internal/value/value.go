package value

// Kind discriminates the variants of a GraphQL value tree.
type Kind string

const (
	KindNull    Kind = "NULL"
	KindInt     Kind = "INT"
	KindFloat   Kind = "FLOAT"
	KindString  Kind = "STRING"
	KindBoolean Kind = "BOOLEAN"
	KindEnum    Kind = "ENUM"
	KindList    Kind = "LIST"
	KindObject  Kind = "OBJECT"
	// KindVariable only appears in input values; response trees never carry it.
	KindVariable Kind = "VARIABLE"
)

// Value is a GraphQL response value: null, a scalar, a list, or an object.
// Objects preserve insertion order so responses render fields in selection
// order.
type Value struct {
	Kind   Kind
	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Items  []Value
	Fields []ObjectField
}

// ObjectField is one entry of an object value.
type ObjectField struct {
	Name  string
	Value Value
}

// Input is an input value. It mirrors Value structurally and additionally
// admits variable references; conversion between the two is total.
type Input Value

func Null() Value             { return Value{Kind: KindNull} }
func Int(i int64) Value       { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value   { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value   { return Value{Kind: KindString, Str: s} }
func Boolean(b bool) Value    { return Value{Kind: KindBoolean, Bool: b} }
func Enum(name string) Value  { return Value{Kind: KindEnum, Str: name} }
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindList, Items: items}
}
func Object(fields ...ObjectField) Value {
	if fields == nil {
		fields = []ObjectField{}
	}
	return Value{Kind: KindObject, Fields: fields}
}
func Field(name string, v Value) ObjectField { return ObjectField{Name: name, Value: v} }

// Variable returns an input value referencing the named variable.
func Variable(name string) Input { return Input{Kind: KindVariable, Str: name} }

// IsNull reports whether v is the null value. The zero Value counts as null.
func (v Value) IsNull() bool { return v.Kind == KindNull || v.Kind == "" }

// Get returns the named object field. Looking up a field on a non-object
// value returns (Null, false).
func (v Value) Get(name string) (Value, bool) {
	if v.Kind != KindObject {
		return Null(), false
	}
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Null(), false
}

// Set replaces the named field if present, otherwise appends it.
func (v *Value) Set(name string, val Value) {
	for i := range v.Fields {
		if v.Fields[i].Name == name {
			v.Fields[i].Value = val
			return
		}
	}
	v.Fields = append(v.Fields, ObjectField{Name: name, Value: val})
}

// AsInput converts a response value to an input value. Conversion is total.
func (v Value) AsInput() Input { return Input(v) }

// AsValue converts an input value to a response value. Conversion is total;
// variable references convert as-is and must be substituted before execution.
func (i Input) AsValue() Value { return Value(i) }

// IsNull reports whether i is the null input. The zero Input counts as null.
func (i Input) IsNull() bool { return Value(i).IsNull() }

// Equal reports structural equality. Object field order is significant.
func Equal(a, b Value) bool {
	ak, bk := a.Kind, b.Kind
	if ak == "" {
		ak = KindNull
	}
	if bk == "" {
		bk = KindNull
	}
	if ak != bk {
		return false
	}
	switch ak {
	case KindNull:
		return true
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString, KindEnum, KindVariable:
		return a.Str == b.Str
	case KindBoolean:
		return a.Bool == b.Bool
	case KindList:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name {
				return false
			}
			if !Equal(a.Fields[i].Value, b.Fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
