package nd

import "errors"

var (
	// ErrDTypeMismatch is returned when a value cannot be stored under the
	// array's element type.
	ErrDTypeMismatch = errors.New("value incompatible with dtype")

	// ErrShapeMismatch is returned when a shape does not match the number of
	// supplied elements, or two arrays disagree on shape.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrOutOfRange is returned for coordinates or flat positions outside the
	// array extent.
	ErrOutOfRange = errors.New("position out of range")
)
