package indexing

import (
	"errors"
	"fmt"
)

// Error classes. Concrete error types below unwrap to exactly one of these so
// callers can branch with errors.Is without matching concrete types.
var (
	// ErrIndex covers keys with too many dimensions, out-of-range positions
	// and broadcast keys without an orthogonal representation.
	ErrIndex = errors.New("index error")

	// ErrInvalidIndexer covers indexers that are structurally unusable:
	// wrong rank, zero step, or more array axes than the backend capability
	// allows.
	ErrInvalidIndexer = errors.New("invalid indexer")

	// ErrReadOnly is the class for writes against backends that do not
	// support item assignment.
	ErrReadOnly = errors.New("read-only backend")

	// ErrIncompatibleValue is the class for assignments whose value cannot
	// be stored under the backend's element type.
	ErrIncompatibleValue = errors.New("value incompatible with storage dtype")
)

// TooManyIndicesError reports a key with more entries than the array has
// dimensions.
type TooManyIndicesError struct {
	Got  int
	NDim int
}

func (e *TooManyIndicesError) Error() string {
	return fmt.Sprintf("too many indices: key has %d entries for %d dimensions", e.Got, e.NDim)
}

func (e *TooManyIndicesError) Unwrap() error { return ErrIndex }

// OutOfBoundsError reports a position outside an axis extent.
type OutOfBoundsError struct {
	Index int
	Size  int
	Axis  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d is out of bounds for axis %d with size %d", e.Index, e.Axis, e.Size)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrIndex }

// NotOrthogonalError reports a broadcast key whose array axes are genuinely
// zipped and therefore cannot be converted to an outer key.
type NotOrthogonalError struct {
	Key Key
}

func (e *NotOrthogonalError) Error() string {
	return fmt.Sprintf("indexer cannot be orthogonalized: %s", e.Key)
}

func (e *NotOrthogonalError) Unwrap() error { return ErrIndex }

// InvalidIndexerError reports a structurally unusable indexer.
type InvalidIndexerError struct {
	Reason string
}

func (e *InvalidIndexerError) Error() string {
	return "invalid indexer: " + e.Reason
}

func (e *InvalidIndexerError) Unwrap() error { return ErrInvalidIndexer }

// ReadOnlyError reports a write against a backend without item assignment.
type ReadOnlyError struct {
	Backend string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s backend does not support item assignment; materialize into a dense array first", e.Backend)
}

func (e *ReadOnlyError) Unwrap() error { return ErrReadOnly }

// IncompatibleValueError reports an assignment value the backend cannot
// store.
type IncompatibleValueError struct {
	Reason string
}

func (e *IncompatibleValueError) Error() string {
	return "incompatible value: " + e.Reason
}

func (e *IncompatibleValueError) Unwrap() error { return ErrIncompatibleValue }
