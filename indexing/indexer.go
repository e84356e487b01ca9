package indexing

import (
	"fmt"
	"math"
	"strings"
)

// None marks an open slice bound, mirroring an omitted bound in slice
// notation.
const None = math.MinInt

// Indexer selects positions along a single dimension. It is a closed union:
// Slice, Scalar, IntArray, BoolMask, plus the Ellipsis placeholder that is
// only legal in raw keys.
type Indexer interface {
	isIndexer()
	String() string
}

// Key is an ordered sequence of per-dimension indexers.
type Key []Indexer

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, ix := range k {
		parts[i] = ix.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Clone returns a shallow copy of the key sequence.
func (k Key) Clone() Key {
	cp := make(Key, len(k))
	copy(cp, k)
	return cp
}

// Slice selects a range of positions with slice semantics: open bounds via
// None, negative indices counted from the end, and negative steps.
type Slice struct {
	Start, Stop, Step int
}

// NewSlice builds a slice indexer. Use None for open bounds; a zero step is
// rejected later during expansion.
func NewSlice(start, stop, step int) Slice {
	return Slice{Start: start, Stop: stop, Step: step}
}

// FullSlice selects an entire axis.
func FullSlice() Slice {
	return Slice{Start: None, Stop: None, Step: 1}
}

func (Slice) isIndexer() {}

// IsFull reports whether the slice selects the whole axis in order.
func (s Slice) IsFull() bool {
	return s.Start == None && s.Stop == None && (s.Step == None || s.Step == 1)
}

func (s Slice) step() int {
	if s.Step == None || s.Step == 0 {
		return 1
	}
	return s.Step
}

// Indices normalizes the slice against an axis of the given size, returning
// concrete (start, stop, step) such that the selected positions are
// start, start+step, ... while stop is not passed.
func (s Slice) Indices(size int) (start, stop, step int) {
	step = s.step()

	var defStart, defStop int
	if step > 0 {
		defStart, defStop = 0, size
	} else {
		defStart, defStop = size-1, -1
	}

	start = s.Start
	if start == None {
		start = defStart
	} else {
		if start < 0 {
			start += size
		}
		if start < 0 {
			if step < 0 {
				start = -1
			} else {
				start = 0
			}
		}
		if start >= size {
			if step < 0 {
				start = size - 1
			} else {
				start = size
			}
		}
	}

	stop = s.Stop
	if stop == None {
		stop = defStop
	} else {
		if stop < 0 {
			stop += size
		}
		if stop < 0 {
			if step < 0 {
				stop = -1
			} else {
				stop = 0
			}
		}
		if stop >= size {
			if step < 0 {
				stop = size - 1
			} else {
				stop = size
			}
		}
	}
	return start, stop, step
}

// Len returns the number of positions the slice selects on an axis of the
// given size.
func (s Slice) Len(size int) int {
	start, stop, step := s.Indices(size)
	if step > 0 {
		if stop > start {
			return (stop - start + step - 1) / step
		}
		return 0
	}
	if start > stop {
		return (start - stop - step - 1) / -step
	}
	return 0
}

func (s Slice) String() string {
	b := func(v int) string {
		if v == None {
			return ""
		}
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%s:%s:%d", b(s.Start), b(s.Stop), s.step())
}

// ExpandSlice materializes the positions a slice selects on an axis of the
// given size.
func ExpandSlice(s Slice, size int) []int {
	start, stop, step := s.Indices(size)
	out := make([]int, 0, s.Len(size))
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	return out
}

// Scalar selects one position and removes the dimension from the result.
type Scalar struct {
	Value int
}

func (Scalar) isIndexer() {}

func (s Scalar) String() string { return fmt.Sprintf("%d", s.Value) }

// IntArray selects explicit positions, ordered and not necessarily unique.
// The dimension is kept in the result.
//
// Dims optionally records the broadcast shape of the positions for
// vectorized (zipped) keys; nil means a plain 1-D selection along the axis
// the indexer sits on.
type IntArray struct {
	Values []int
	Dims   []int
}

// NewIntArray builds a plain 1-D integer array indexer.
func NewIntArray(values ...int) IntArray {
	return IntArray{Values: values}
}

func (IntArray) isIndexer() {}

// Size returns the number of selected positions.
func (a IntArray) Size() int { return len(a.Values) }

func (a IntArray) dims() []int {
	if a.Dims == nil {
		return []int{len(a.Values)}
	}
	return a.Dims
}

func (a IntArray) String() string {
	if a.Dims != nil {
		return fmt.Sprintf("array%v%v", a.Dims, a.Values)
	}
	return fmt.Sprintf("array%v", a.Values)
}

// BoolMask selects positions where the mask is true. It must have exactly the
// axis length and is converted to an IntArray during canonicalization.
type BoolMask struct {
	Values []bool
}

func (BoolMask) isIndexer() {}

func (m BoolMask) String() string { return fmt.Sprintf("mask(len=%d)", len(m.Values)) }

// nonzero returns the positions where the mask is true.
func (m BoolMask) nonzero() IntArray {
	out := make([]int, 0, len(m.Values))
	for i, v := range m.Values {
		if v {
			out = append(out, i)
		}
	}
	return NewIntArray(out...)
}

type ellipsisIndexer struct{}

func (ellipsisIndexer) isIndexer() {}

func (ellipsisIndexer) String() string { return "..." }

// Ellipsis stands for "all remaining axes" in a raw key. At most one Ellipsis
// expands; additional ones degrade to full slices.
var Ellipsis Indexer = ellipsisIndexer{}

// Convenience constructors for building keys.

// At selects a single position, collapsing the axis.
func At(i int) Indexer { return Scalar{Value: i} }

// All selects an entire axis.
func All() Indexer { return FullSlice() }

// Pick selects explicit positions along an axis.
func Pick(values ...int) Indexer { return NewIntArray(values...) }

// Mask selects positions where values is true.
func Mask(values ...bool) Indexer { return BoolMask{Values: values} }
