// Package evaluator interprets the JSON-encoded style-expression DSL
// (get, has, in, comparisons, all/any, case, match, coalesce,
// interpolate) against a feature's metadata and the current zoom.
//
// These functions follow the Mapbox GL style expression semantics:
// https://docs.maptiler.com/gl-style-specification/expressions/
package evaluator

import "math"

// Kind tags the variant carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
)

// Value is the tagged scalar every expression resolves to. Equality
// across KindInt and KindDouble coerces to double; no other cross-kind
// comparison is ever equal.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
}

// Null is the value produced by missing keys, unknown operators and
// arity/type errors. Consumers treat it as "do not apply this paint
// property".
var Null = Value{kind: KindNull}

func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int(i int64) Value       { return Value{kind: KindInt, i: i} }
func Double(f float64) Value  { return Value{kind: KindDouble, f: f} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func Array(v []Value) Value   { return Value{kind: KindArray, arr: v} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Valid reports whether v carries a concrete result, mirroring the
// source's QVariant::isValid() used by coalesce to skip Null operands.
func (v Value) Valid() bool { return v.kind != KindNull }

// Truthy reports v's truthiness the way callers expecting a Bool do:
// only KindBool true is truthy, everything else (including Null) is
// false. Used by all/any/case conditions.
func (v Value) Truthy() bool {
	return v.kind == KindBool && v.b
}

// AsDouble coerces numeric kinds to float64; non-numeric kinds yield
// (0, false).
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindDouble:
		return v.f, true
	default:
		return 0, false
	}
}

// AsString returns the underlying string for KindString values.
func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

// Equal implements value equality with numeric cross-kind coercion:
// Int and Double compare by their double value; any other pairing of
// differing kinds is unequal; Null equals Null.
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull || other.kind == KindNull {
		return v.kind == other.kind
	}
	if isNumeric(v.kind) && isNumeric(other.kind) {
		a, _ := v.AsDouble()
		b, _ := other.AsDouble()
		return a == b
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindDouble }

// Greater implements the '>' comparison: lexicographic for strings,
// numeric otherwise, matching the source's compare-by-QMetaType
// dispatch.
func (v Value) Greater(other Value) bool {
	if vs, ok := v.AsString(); ok {
		os, _ := other.AsString()
		return vs > os
	}
	a, _ := v.AsDouble()
	b, _ := other.AsDouble()
	return a > b
}

// Interface converts a Value back to a plain Go value, for JSON
// re-encoding or logging.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface builds a Value from a decoded JSON scalar (the shape
// encoding/json produces for any{}: nil, bool, float64, string, or
// []any). Integral float64 values are kept as KindDouble; callers that
// need KindInt construct it explicitly (feature metadata does this for
// MVT integer tags).
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case float64:
		return Double(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case string:
		return String(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromInterface(e)
		}
		return Array(out)
	default:
		return Null
	}
}

// approxEqual is used by this package's tests asserting numeric
// results within a tolerance.
func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
