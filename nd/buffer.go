package nd

import (
	"fmt"
	"reflect"
	"time"
)

// buffer is the typed backing storage behind an Array. Implementations hold a
// flat, row-major element slice.
type buffer interface {
	dtype() DType
	len() int
	at(i int) any
	setAt(i int, v any) error
	gather(idx []int) buffer
	clone() buffer
	equalAt(i int, other buffer, j int) bool
}

type typedBuffer[T any] struct {
	dt   DType
	data []T
	eq   func(a, b T) bool
}

func (b *typedBuffer[T]) dtype() DType { return b.dt }

func (b *typedBuffer[T]) len() int { return len(b.data) }

func (b *typedBuffer[T]) at(i int) any { return b.data[i] }

func (b *typedBuffer[T]) setAt(i int, v any) error {
	cv, err := coerce(b.dt, v)
	if err != nil {
		return err
	}
	b.data[i] = cv.(T)
	return nil
}

func (b *typedBuffer[T]) gather(idx []int) buffer {
	out := make([]T, len(idx))
	for k, i := range idx {
		out[k] = b.data[i]
	}
	return &typedBuffer[T]{dt: b.dt, data: out, eq: b.eq}
}

func (b *typedBuffer[T]) clone() buffer {
	out := make([]T, len(b.data))
	copy(out, b.data)
	return &typedBuffer[T]{dt: b.dt, data: out, eq: b.eq}
}

func (b *typedBuffer[T]) equalAt(i int, other buffer, j int) bool {
	ob, ok := other.(*typedBuffer[T])
	if !ok {
		return false
	}
	return b.eq(b.data[i], ob.data[j])
}

func comparableEq[T comparable](a, b T) bool { return a == b }

func timeEq(a, b time.Time) bool { return a.Equal(b) }

func objectEq(a, b any) bool { return reflect.DeepEqual(a, b) }

// coerce converts v into the canonical Go representation for dt. It accepts
// the small set of convenience widenings (int -> int64/float64) and rejects
// everything else.
func coerce(dt DType, v any) (any, error) {
	switch dt {
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Int64:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		}
	case Float64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Time:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	case Object:
		return v, nil
	}
	return nil, fmt.Errorf("%w: cannot store %T as %s", ErrDTypeMismatch, v, dt)
}

func allocBuffer(dt DType, n int) buffer {
	switch dt {
	case Bool:
		return &typedBuffer[bool]{dt: dt, data: make([]bool, n), eq: comparableEq[bool]}
	case Int64:
		return &typedBuffer[int64]{dt: dt, data: make([]int64, n), eq: comparableEq[int64]}
	case Float64:
		return &typedBuffer[float64]{dt: dt, data: make([]float64, n), eq: comparableEq[float64]}
	case String:
		return &typedBuffer[string]{dt: dt, data: make([]string, n), eq: comparableEq[string]}
	case Time:
		return &typedBuffer[time.Time]{dt: dt, data: make([]time.Time, n), eq: timeEq}
	default:
		return &typedBuffer[any]{dt: Object, data: make([]any, n), eq: objectEq}
	}
}
