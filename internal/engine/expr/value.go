package expr

import "strconv"

type valueKind int

const (
	kindBool valueKind = iota
	kindString
	kindNumber
)

// Value is the runtime result of evaluating an expression or sub-expression.
type Value struct {
	kind valueKind
	str  string
	b    bool
	num  float64
}

// Bool wraps a boolean as a Value.
func Bool(b bool) Value {
	return Value{kind: kindBool, b: b}
}

// String wraps a string as a Value.
func String(s string) Value {
	return Value{kind: kindString, str: s}
}

// Number wraps a float64 as a Value.
func Number(n float64) Value {
	return Value{kind: kindNumber, num: n}
}

// Truthy reports the value's boolean coercion: booleans as-is, non-empty
// strings as true, and non-zero numbers as true.
func (v Value) Truthy() bool {
	switch v.kind {
	case kindBool:
		return v.b
	case kindString:
		return v.str != ""
	case kindNumber:
		return v.num != 0
	default:
		return false
	}
}

// Str stringifies the value. Booleans render as "true"/"false" per the
// interpolation contract.
func (v Value) Str() string {
	switch v.kind {
	case kindBool:
		if v.b {
			return "true"
		}
		return "false"
	case kindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	default:
		return v.str
	}
}

// Equal compares two values for equality after coercing both to the same
// representation when their kinds differ (numbers compare numerically
// against numeric strings; everything else compares as strings).
func (v Value) Equal(other Value) bool {
	if v.kind == other.kind {
		switch v.kind {
		case kindBool:
			return v.b == other.b
		case kindNumber:
			return v.num == other.num
		default:
			return v.str == other.str
		}
	}
	if v.kind == kindNumber && other.kind == kindString {
		if n, err := strconv.ParseFloat(other.str, 64); err == nil {
			return v.num == n
		}
	}
	if v.kind == kindString && other.kind == kindNumber {
		return other.Equal(v)
	}
	return v.Str() == other.Str()
}
