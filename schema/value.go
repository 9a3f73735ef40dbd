package schema

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

// All value kinds.
const (
	MissingKind ValueKind = iota // zero value, so Value{} is missing
	IntKind
	RealKind
	TextKind
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case IntKind:
		return "int"
	case RealKind:
		return "real"
	case TextKind:
		return "text"
	default:
		return "missing"
	}
}

// Value is one cell of a record: an int, a real, a text or missing.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: IntKind, i: v} }

// Real returns a real value.
func Real(v float64) Value { return Value{kind: RealKind, f: v} }

// Text returns a text value.
func Text(v string) Value { return Value{kind: TextKind, s: v} }

// Missing returns the missing value.
func Missing() Value { return Value{} }

// Kind returns the variant held.
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether no value is available.
func (v Value) IsMissing() bool { return v.kind == MissingKind }

// Int64 returns the integer and whether the value is an int.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == IntKind }

// Text returns the text and whether the value is a text.
func (v Value) Text() (string, bool) { return v.s, v.kind == TextKind }

// Float returns the value as a float64. Ints are widened; text and missing
// values are NaN.
func (v Value) Float() float64 {
	switch v.kind {
	case IntKind:
		return float64(v.i)
	case RealKind:
		return v.f
	default:
		return math.NaN()
	}
}

// Equal compares kind and payload. Two missing values are equal; NaN reals are not.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case IntKind:
		return v.i == o.i
	case RealKind:
		return v.f == o.f
	case TextKind:
		return v.s == o.s
	default:
		return true
	}
}

// String is the default string conversion used when exporting.
func (v Value) String() string {
	switch v.kind {
	case IntKind:
		return strconv.FormatInt(v.i, 10)
	case RealKind:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TextKind:
		return v.s
	default:
		return MissingMarker
	}
}

// Interface returns the payload as a plain Go value (int64, float64, string or nil).
func (v Value) Interface() any {
	switch v.kind {
	case IntKind:
		return v.i
	case RealKind:
		return v.f
	case TextKind:
		return v.s
	default:
		return nil
	}
}

// MarshalJSON writes the payload; missing becomes null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == RealKind && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

// ParseValue converts a raw token to a Value of the given type.
// The missing marker always yields Missing.
func ParseValue(t AttributeType, raw string) (Value, error) {
	if raw == MissingMarker {
		return Missing(), nil
	}
	switch t {
	case IntegerType:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Missing(), err
		}
		return Int(n), nil
	case RealType:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Missing(), err
		}
		return Real(f), nil
	default:
		return Text(raw), nil
	}
}
