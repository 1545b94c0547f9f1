package value

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// FromJSON decodes a JSON document into a Value, preserving object key order.
func FromJSON(data []byte) (Value, error) {
	raw, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return Null(), err
	}
	return fromJSONValue(raw, dt)
}

func fromJSONValue(raw []byte, dt jsonparser.ValueType) (Value, error) {
	switch dt {
	case jsonparser.Null, jsonparser.NotExist:
		return Null(), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Null(), err
		}
		return String(s), nil
	case jsonparser.Number:
		lit := string(raw)
		if strings.ContainsAny(lit, ".eE") {
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return Null(), err
			}
			return Float(f), nil
		}
		i, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return Null(), err
		}
		return Int(i), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Null(), err
		}
		return Boolean(b), nil
	case jsonparser.Array:
		items := []Value{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(el []byte, elType jsonparser.ValueType, _ int, _ error) {
			if inner != nil {
				return
			}
			v, err := fromJSONValue(el, elType)
			if err != nil {
				inner = err
				return
			}
			items = append(items, v)
		})
		if err != nil {
			return Null(), err
		}
		if inner != nil {
			return Null(), inner
		}
		return List(items...), nil
	case jsonparser.Object:
		fields := []ObjectField{}
		err := jsonparser.ObjectEach(raw, func(key, el []byte, elType jsonparser.ValueType, _ int) error {
			v, err := fromJSONValue(el, elType)
			if err != nil {
				return err
			}
			fields = append(fields, ObjectField{Name: string(key), Value: v})
			return nil
		})
		if err != nil {
			return Null(), err
		}
		return Object(fields...), nil
	}
	return Null(), nil
}

// MarshalJSON encodes the value preserving object field order.
func (v Value) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	if err := writeJSON(&b, v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func writeJSON(b *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KindNull, "":
		b.WriteString("null")
	case KindInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		f, err := json.Marshal(v.Float)
		if err != nil {
			return err
		}
		b.Write(f)
	case KindString, KindEnum:
		s, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		b.Write(s)
	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.Bool))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeJSON(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			name, err := json.Marshal(f.Name)
			if err != nil {
				return err
			}
			b.Write(name)
			b.WriteByte(':')
			if err := writeJSON(b, f.Value); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case KindVariable:
		b.WriteString("null")
	}
	return nil
}
