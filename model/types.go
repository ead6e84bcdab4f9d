package model

import "strconv"

// Kind identifies the concrete type carried by a Value.
type Kind uint8

const (
	// KindAbsent marks a feature value as not present on a node/edge. It is
	// a first-class state, distinct from any stored value.
	KindAbsent Kind = iota
	// KindInt marks an integer-valued feature.
	KindInt
	// KindString marks a string-valued feature.
	KindString
)

// Value is a small typed feature value: either an int, a string, or the
// absent state. It is the unit both IntFeatureArray and StringFeatureArray hand
// back from Get, and the unit feature predicates compare against.
type Value struct {
	Kind Kind
	I    int64
	S    string
}

// Absent is the canonical absent Value.
var Absent = Value{Kind: KindAbsent}

// Int constructs an int-kinded Value.
func Int(v int64) Value { return Value{Kind: KindInt, I: v} }

// Str constructs a string-kinded Value.
func Str(v string) Value { return Value{Kind: KindString, S: v} }

// IsAbsent reports whether v carries no value.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// String renders v for diagnostics and template/statistics output. It is
// not used on any hot path.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindString:
		return v.S
	default:
		return "<absent>"
	}
}

// Equal reports whether v and other carry the same kind and value.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.I == other.I
	case KindString:
		return v.S == other.S
	default:
		return true // both absent
	}
}
