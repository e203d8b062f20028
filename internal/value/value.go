package value

import (
	"fmt"
	"time"
)

// Type tags the declared type of a condition or calibration value.
type Type string

const (
	TypeText  Type = "text"
	TypeInt   Type = "int"
	TypeUint  Type = "uint"
	TypeFloat Type = "float"
	TypeBool  Type = "bool"
	TypeTime  Type = "time"
)

// ParseType decodes a stored type identifier into a Type tag.
// The conditions store uses "string" and "float"; calibration schemas use
// "double". Both spellings map onto the same tags.
func ParseType(s string) (Type, bool) {
	switch s {
	case "text", "string":
		return TypeText, true
	case "int", "long":
		return TypeInt, true
	case "uint", "ulong":
		return TypeUint, true
	case "float", "double":
		return TypeFloat, true
	case "bool":
		return TypeBool, true
	case "time":
		return TypeTime, true
	default:
		return "", false
	}
}

func (t Type) String() string { return string(t) }

// Value is a sealed interface over the typed scalars a run condition or a
// calibration cell can hold. Only Text, Int, Uint, Float, Bool, and Time
// implement it, so consumers can type-switch exhaustively.
type Value interface {
	valueNode() // Sealed - only types in this package implement it
}

// Text is a string value.
type Text string

func (Text) valueNode() {}

// Int is a signed integer value. Always int64.
type Int int64

func (Int) valueNode() {}

// Uint is an unsigned integer value. Kept separate from Int so ulong
// calibration columns round-trip without sign loss.
type Uint uint64

func (Uint) valueNode() {}

// Float is a floating-point value.
type Float float64

func (Float) valueNode() {}

// Bool is a boolean value.
type Bool bool

func (Bool) valueNode() {}

// Time is a timestamp value, always UTC.
type Time time.Time

func (Time) valueNode() {}

// TypeOf reports the tag for a concrete value.
func TypeOf(v Value) Type {
	switch v.(type) {
	case Text:
		return TypeText
	case Int:
		return TypeInt
	case Uint:
		return TypeUint
	case Float:
		return TypeFloat
	case Bool:
		return TypeBool
	case Time:
		return TypeTime
	default:
		return ""
	}
}

// AsText returns the string payload, reporting false for any other type.
func AsText(v Value) (string, bool) {
	t, ok := v.(Text)
	return string(t), ok
}

// AsInt returns the integer payload, reporting false for any other type.
func AsInt(v Value) (int64, bool) {
	i, ok := v.(Int)
	return int64(i), ok
}

// AsUint returns the unsigned integer payload, reporting false for any other type.
func AsUint(v Value) (uint64, bool) {
	u, ok := v.(Uint)
	return uint64(u), ok
}

// AsFloat returns the float payload, reporting false for any other type.
// No coercion: an Int never reads back as a Float.
func AsFloat(v Value) (float64, bool) {
	f, ok := v.(Float)
	return float64(f), ok
}

// AsBool returns the boolean payload, reporting false for any other type.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(Bool)
	return bool(b), ok
}

// AsTime returns the timestamp payload, reporting false for any other type.
func AsTime(v Value) (time.Time, bool) {
	t, ok := v.(Time)
	return time.Time(t), ok
}

// String renders a value in its wire form. Timestamps use the store's
// fixed "YYYY-MM-DD HH:MM:SS" layout.
func String(v Value) string {
	switch val := v.(type) {
	case Text:
		return string(val)
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Uint:
		return fmt.Sprintf("%d", uint64(val))
	case Float:
		return fmt.Sprintf("%g", float64(val))
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Time:
		return time.Time(val).UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("unknown value type: %T", v)
	}
}
