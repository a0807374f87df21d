package value

import (
	"encoding/json"
	"math"

	"github.com/spf13/cast"
)

// Truthy reports the boolean interpretation of a value: null, false,
// zero, NaN and the empty string are false; everything else is true.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	}
	// arrays and objects are always truthy, even when empty
	return true
}

// CoerceNumber converts a value to a number on a best-effort basis.
// Values that cannot be interpreted numerically yield NaN, never an error.
func CoerceNumber(v Value) Value {
	switch v.kind {
	case KindNumber:
		return v
	case KindBool:
		if v.b {
			return Number(1)
		}
		return Number(0)
	case KindString:
		if f, err := cast.ToFloat64E(v.s); err == nil {
			return Number(f)
		}
		return Number(math.NaN())
	}
	return Number(math.NaN())
}

// CoerceBool converts a value to its truthiness.
func CoerceBool(v Value) Value {
	return Bool(Truthy(v))
}

// CoerceString renders a value as text. Scalars go through cast;
// arrays and objects render as compact JSON.
func CoerceString(v Value) string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return cast.ToString(v.b)
	case KindNumber:
		if math.IsNaN(v.n) {
			return "NaN"
		}
		return cast.ToString(v.n)
	case KindString:
		return v.s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
