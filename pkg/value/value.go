// Package value defines the generic structured value passed between
// pipeline stages: a tagged union over null, bool, number, string,
// array and object. Objects remember key insertion order because
// downstream encoders (CSV headers in particular) depend on field order.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is an immutable-by-convention structured value. Stages produce
// new Values instead of mutating ones another stage still holds.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	keys []string
	obj  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value holding the given items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// Object returns an empty object value. Populate it with Set.
func Object() Value {
	return Value{kind: KindObject, obj: make(map[string]Value)}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean payload, false if v is not a bool.
func (v Value) BoolValue() bool { return v.b }

// NumberValue returns the numeric payload, 0 if v is not a number.
func (v Value) NumberValue() float64 { return v.n }

// StringValue returns the string payload, "" if v is not a string.
func (v Value) StringValue() string { return v.s }

// Len returns the number of elements (array) or fields (object).
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	}
	return 0
}

// Index returns the i-th array element. Null for out-of-range or non-arrays.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Null()
	}
	return v.arr[i]
}

// Items returns the underlying array slice. Callers must not mutate it.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Keys returns object field names in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return v.keys
}

// Get returns the field value and whether the field exists.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	fv, ok := v.obj[key]
	return fv, ok
}

// Set stores a field on an object value, preserving first-set key order.
// It panics if v is not an object, mirroring map misuse.
func (v *Value) Set(key string, fv Value) {
	if v.kind != KindObject {
		panic("value: Set on non-object value")
	}
	if _, exists := v.obj[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = fv
}

// FromAny converts a dynamically-typed tree (as produced by generic
// decoders like encoding/json or mxj) into a Value. Map keys are sorted
// so the result is deterministic regardless of Go map iteration order.
func FromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(t.String())
	case string:
		return String(t)
	case []any:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			items = append(items, FromAny(it))
		}
		return Array(items...)
	case []map[string]any:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			items = append(items, FromAny(it))
		}
		return Array(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := Object()
		for _, k := range keys {
			obj.Set(k, FromAny(t[k]))
		}
		return obj
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// ToAny converts back to a dynamically-typed tree for generic encoders.
// Object key order is lost across this boundary.
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, 0, len(v.arr))
		for _, it := range v.arr {
			out = append(out, it.ToAny())
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.obj[k].ToAny()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes the value, keeping object field order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			// JSON has no NaN/Inf; degrade to null like most encoders
			return []byte("null"), nil
		}
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, it := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := it.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("value: cannot marshal kind %s", v.kind)
}

// UnmarshalJSON decodes arbitrary JSON into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// ParseJSON decodes a raw JSON payload into a Value.
func ParseJSON(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Null(), err
	}
	return v, nil
}

// Equal reports deep equality between two values. NaN equals NaN so
// failed numeric coercions compare stable.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if math.IsNaN(a.n) && math.IsNaN(b.n) {
			return true
		}
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for _, k := range a.keys {
			bv, ok := b.obj[k]
			if !ok || !Equal(a.obj[k], bv) {
				return false
			}
		}
		return true
	}
	return false
}
