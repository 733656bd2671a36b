package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	// KindAbsent marks a position with no value at all, as opposed to an
	// explicit JSON null. The zero Value is absent.
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a tagged union over JSON-like data: null, bool, number, string,
// array, or string-keyed object. Tool inputs and responses are arbitrarily
// nested data of unpredictable shape; modeling them as an explicit union
// keeps similarity dispatch exhaustive instead of reflecting over any.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null returns the explicit JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value. All JSON numbers are held as float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array Value holding the given elements.
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// Object returns an object Value holding the given fields.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// Kind reports which variant the Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the Value is the absent marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// BoolVal returns the boolean payload. Valid only for KindBool.
func (v Value) BoolVal() bool { return v.b }

// NumberVal returns the numeric payload. Valid only for KindNumber.
func (v Value) NumberVal() float64 { return v.n }

// StringVal returns the string payload. Valid only for KindString.
func (v Value) StringVal() string { return v.s }

// ArrayVal returns the element slice. Valid only for KindArray.
func (v Value) ArrayVal() []Value { return v.arr }

// ObjectVal returns the field map. Valid only for KindObject.
func (v Value) ObjectVal() map[string]Value { return v.obj }

// Equal reports deep equality between two Values. Two absent values are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, ve := range v.obj {
			oe, ok := o.obj[k]
			if !ok || !ve.Equal(oe) {
				return false
			}
		}
		return true
	}
	return false
}

// Canonical returns a deterministic, key-sorted serialization of the value.
// Object keys are emitted in sorted order so that two structurally equal
// values always produce the same byte sequence. This is the form composite
// similarity computes character frequencies over.
func (v Value) Canonical() string {
	var sb strings.Builder
	v.writeCanonical(&sb)
	return sb.String()
}

func (v Value) writeCanonical(sb *strings.Builder) {
	switch v.kind {
	case KindAbsent, KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindNumber:
		sb.WriteString(formatNumber(v.n))
	case KindString:
		data, _ := json.Marshal(v.s)
		sb.Write(data)
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.writeCanonical(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			data, _ := json.Marshal(k)
			sb.Write(data)
			sb.WriteByte(':')
			v.obj[k].writeCanonical(sb)
		}
		sb.WriteByte('}')
	}
}

// StringForm renders the value for cross-kind comparison: strings are used
// verbatim, everything else falls back to the canonical serialization.
func (v Value) StringForm() string {
	if v.kind == KindString {
		return v.s
	}
	return v.Canonical()
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) && n < 1e15 && n > -1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// UnmarshalJSON decodes arbitrary JSON into the union.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromAny(raw)
	return nil
}

// MarshalJSON encodes the union back to plain JSON. The absent marker
// serializes as null; callers use omitempty-style presence tracking at the
// field level, not inside Value.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAbsent, KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return []byte(formatNumber(v.n)), nil
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

func fromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(n)
	case float64:
		return Number(t)
	case string:
		return String(t)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = fromAny(e)
		}
		return Array(elems...)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, e := range t {
			fields[k] = fromAny(e)
		}
		return Object(fields)
	}
	return String(fmt.Sprint(raw))
}

// FromAny converts decoded JSON (the any/map[string]any/[]any shape produced
// by encoding/json) into a Value.
func FromAny(raw any) Value { return fromAny(raw) }
