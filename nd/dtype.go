package nd

import (
	"math"
	"time"
)

// DType identifies the element type of an Array.
type DType uint8

const (
	// Bool stores true/false elements.
	Bool DType = iota
	// Int64 stores signed 64-bit integers.
	Int64
	// Float64 stores IEEE-754 doubles.
	Float64
	// String stores Go strings.
	String
	// Time stores timestamps with nanosecond precision.
	Time
	// Object stores opaque elements. Label kinds without a native
	// representation (categories, periods) degrade to Object.
	Object
)

func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Time:
		return "time"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the defined element types.
func (d DType) Valid() bool { return d <= Object }

// NaT is the canonical missing-timestamp sentinel. It mirrors the int64-min
// epoch-nanoseconds convention so it round-trips through 8-byte encodings.
var NaT = time.Unix(0, math.MinInt64).UTC()

// IsNaT reports whether t is the missing-timestamp sentinel.
func IsNaT(t time.Time) bool { return t.Equal(NaT) }
