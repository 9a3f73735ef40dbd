package core

import (
	"fmt"
	"math"

	"github.com/huangsam/motionwin/schema"
)

// coerceField converts one raw field to the attribute's type. It returns the
// value and whether the field degraded to missing in a way worth a warning.
func coerceField(attr schema.Attribute, raw any, present bool, mode schema.CoercionMode) (schema.Value, bool) {
	switch attr.Type {
	case schema.StringType:
		if !present || raw == nil {
			return schema.Missing(), false
		}
		return coerceText(raw), false
	case schema.RealType:
		if !present {
			return schema.Missing(), true
		}
		if v, ok := asReal(raw, mode); ok {
			return v, false
		}
		return schema.Missing(), true
	case schema.IntegerType:
		if !present {
			return schema.Missing(), true
		}
		if v, ok := asInt(raw, mode); ok {
			return v, false
		}
		return schema.Missing(), true
	default:
		return schema.Missing(), true
	}
}

func coerceText(raw any) schema.Value {
	switch v := raw.(type) {
	case schema.Value:
		if v.IsMissing() {
			return v
		}
		if s, ok := v.Text(); ok {
			return schema.Text(s)
		}
		return schema.Text(v.String())
	case string:
		return schema.Text(v)
	default:
		return schema.Text(fmt.Sprint(v))
	}
}

func asReal(raw any, mode schema.CoercionMode) (schema.Value, bool) {
	switch v := raw.(type) {
	case float64:
		return schema.Real(v), true
	case float32:
		return schema.Real(float64(v)), true
	case schema.Value:
		switch v.Kind() {
		case schema.RealKind:
			return v, true
		case schema.IntKind:
			if mode == schema.WidenCoercion {
				return schema.Real(v.Float()), true
			}
		}
		return schema.Missing(), false
	}
	if mode == schema.WidenCoercion {
		if n, ok := integerOf(raw); ok {
			return schema.Real(float64(n)), true
		}
	}
	return schema.Missing(), false
}

func asInt(raw any, mode schema.CoercionMode) (schema.Value, bool) {
	if n, ok := integerOf(raw); ok {
		return schema.Int(n), true
	}
	var f float64
	switch v := raw.(type) {
	case schema.Value:
		switch v.Kind() {
		case schema.IntKind:
			return v, true
		case schema.RealKind:
			f = v.Float()
		default:
			return schema.Missing(), false
		}
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return schema.Missing(), false
	}
	if mode != schema.WidenCoercion {
		return schema.Missing(), false
	}
	if math.Trunc(f) != f || f < math.MinInt64 || f >= math.MaxInt64 {
		return schema.Missing(), false
	}
	return schema.Int(int64(f)), true
}

// integerOf accepts every Go integer kind that fits in an int64.
func integerOf(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintToInt(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintToInt(v)
	}
	return 0, false
}

func uintToInt(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// coerceRecord builds a record in schema order from raw fields. It returns the
// record and the names of attributes that degraded to missing.
func coerceRecord(s schema.Schema, fields map[string]any, mode schema.CoercionMode) (schema.Record, []string) {
	record := make(schema.Record, s.Len())
	var warned []string
	for i := range s.Len() {
		attr := s.At(i)
		raw, present := fields[attr.Name]
		v, warn := coerceField(attr, raw, present, mode)
		if warn {
			warned = append(warned, attr.Name)
		}
		record[i] = v
	}
	return record, warned
}

// ParseFields turns raw text fields into typed values using the schema, the
// way a line-oriented feed needs it. Tokens that do not parse are passed
// through as text so coercion flags them.
func ParseFields(s schema.Schema, raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for name, tok := range raw {
		i, ok := s.Index(name)
		if !ok {
			out[name] = tok
			continue
		}
		v, err := schema.ParseValue(s.At(i).Type, tok)
		if err != nil {
			out[name] = tok
			continue
		}
		out[name] = v
	}
	return out
}
