package state

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of value types the cache round-trips
// losslessly. Anything else must be flattened to a String by the
// caller before it reaches the store.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

// Value is a tagged scalar. The cache serializes values as text:
// booleans as the literals "True"/"False", numbers via their literal
// form, strings raw. Parse is total — every raw string decodes to
// exactly one Kind, with String as the catch-all.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean and whether the value holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer and whether the value holds one.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float and whether the value holds one.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string and whether the value holds one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Encode serializes the value to its cache text form. Parse(Encode(v))
// returns v unless the text collides with another kind's literal form:
// String("True") or String("42") decode back as Bool/Int, and
// non-finite floats come back as String. The well-known cache keys
// never store such strings.
func (v Value) Encode() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		// Keep whole floats distinguishable from ints on readback.
		if !strings.ContainsAny(s, ".eE") && !math.IsInf(v.f, 0) && !math.IsNaN(v.f) {
			s += ".0"
		}
		return s
	default:
		return v.s
	}
}

// Parse decodes a raw cache string into a tagged Value. Order matters:
// the boolean literals first, then integer, then float, then the raw
// string as the fallback.
func Parse(raw string) Value {
	switch raw {
	case "True":
		return Bool(true)
	case "False":
		return Bool(false)
	}

	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i)
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Float(f)
	}

	return String(raw)
}

// GoString helps debug output; not part of the wire format.
func (v Value) GoString() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("state.Bool(%v)", v.b)
	case KindInt:
		return fmt.Sprintf("state.Int(%d)", v.i)
	case KindFloat:
		return fmt.Sprintf("state.Float(%g)", v.f)
	default:
		return fmt.Sprintf("state.String(%q)", v.s)
	}
}
