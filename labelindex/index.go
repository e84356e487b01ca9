package labelindex

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/larray/nd"
)

var (
	// ErrNotFound is returned when a label is not present in the index.
	ErrNotFound = errors.New("label not found in index")

	// ErrNotSliceable is returned when a label-based slice cannot be
	// represented as a contiguous positional slice, e.g. because the index
	// is unsorted or non-unique. Labeled slices are never silently converted
	// into array indexers.
	ErrNotSliceable = errors.New("cannot represent labeled slice as a positional slice")

	// ErrUnsupportedLabel is returned for operations the label kind does not
	// support, such as ordered slicing over opaque labels.
	ErrUnsupportedLabel = errors.New("operation unsupported for label kind")
)

// NotFoundError reports a missing label.
type NotFoundError struct {
	Label any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("label %v not found in index", e.Label)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Index is a 1-D mapping from labels to positions. Labels keep their element
// type; kinds without a native representation are stored as Object and
// degrade gracefully instead of failing.
type Index struct {
	dtype  nd.DType
	labels []any
	sorted bool
}

// NewFloat64 builds an index over float labels.
func NewFloat64(labels []float64) *Index {
	out := make([]any, len(labels))
	for i, v := range labels {
		out[i] = v
	}
	return newIndex(nd.Float64, out)
}

// NewInt64 builds an index over integer labels.
func NewInt64(labels []int64) *Index {
	out := make([]any, len(labels))
	for i, v := range labels {
		out[i] = v
	}
	return newIndex(nd.Int64, out)
}

// NewStrings builds an index over string labels.
func NewStrings(labels []string) *Index {
	out := make([]any, len(labels))
	for i, v := range labels {
		out[i] = v
	}
	return newIndex(nd.String, out)
}

// NewTimes builds an index over timestamp labels. The NaT sentinel is a legal
// label and round-trips unchanged.
func NewTimes(labels []time.Time) *Index {
	out := make([]any, len(labels))
	for i, v := range labels {
		out[i] = v
	}
	return newIndex(nd.Time, out)
}

// NewObjects builds an index over opaque labels. Ordered operations
// (SliceIndexer) are unsupported; lookup degrades to equality scans.
func NewObjects(labels []any) *Index {
	out := make([]any, len(labels))
	copy(out, labels)
	return newIndex(nd.Object, out)
}

func newIndex(dt nd.DType, labels []any) *Index {
	ix := &Index{dtype: dt, labels: labels}
	if dt != nd.Object {
		ix.sorted = true
		for i := 1; i < len(labels); i++ {
			if compare(dt, labels[i-1], labels[i]) > 0 {
				ix.sorted = false
				break
			}
		}
	}
	return ix
}

// Len returns the number of labels.
func (ix *Index) Len() int { return len(ix.labels) }

// DType returns the label element type.
func (ix *Index) DType() nd.DType { return ix.dtype }

// IsSorted reports whether the labels are in non-decreasing order.
func (ix *Index) IsSorted() bool { return ix.sorted }

// Label returns the label at pos. Negative positions count from the end.
func (ix *Index) Label(pos int) (any, error) {
	p := pos
	if p < 0 {
		p += len(ix.labels)
	}
	if p < 0 || p >= len(ix.labels) {
		return nil, fmt.Errorf("%w: position %d of %d", nd.ErrOutOfRange, pos, len(ix.labels))
	}
	return ix.labels[p], nil
}

// SetLabel replaces the label at pos. The value must match the index dtype.
func (ix *Index) SetLabel(pos int, v any) error {
	p := pos
	if p < 0 {
		p += len(ix.labels)
	}
	if p < 0 || p >= len(ix.labels) {
		return fmt.Errorf("%w: position %d of %d", nd.ErrOutOfRange, pos, len(ix.labels))
	}
	if !matchesKind(ix.dtype, v) {
		return fmt.Errorf("%w: cannot store %T in %s index", nd.ErrDTypeMismatch, v, ix.dtype)
	}
	ix.labels[p] = v
	// order may have been broken
	ix.sorted = false
	if ix.dtype != nd.Object {
		ix.sorted = true
		for i := 1; i < len(ix.labels); i++ {
			if compare(ix.dtype, ix.labels[i-1], ix.labels[i]) > 0 {
				ix.sorted = false
				break
			}
		}
	}
	return nil
}

// Labels materializes the labels as a dense 1-D array.
func (ix *Index) Labels() *nd.Array {
	arr := nd.Zeros(ix.dtype, len(ix.labels))
	for i, v := range ix.labels {
		_ = arr.SetFlatAt(i, v)
	}
	return arr
}

// GetLoc returns the position of the first occurrence of label.
func (ix *Index) GetLoc(label any) (int, error) {
	if !matchesKind(ix.dtype, label) {
		return 0, &NotFoundError{Label: label}
	}
	if ix.sorted && ix.dtype != nd.Object {
		i := sort.Search(len(ix.labels), func(i int) bool {
			return compare(ix.dtype, ix.labels[i], label) >= 0
		})
		if i < len(ix.labels) && equal(ix.dtype, ix.labels[i], label) {
			return i, nil
		}
		return 0, &NotFoundError{Label: label}
	}
	for i, v := range ix.labels {
		if equal(ix.dtype, v, label) {
			return i, nil
		}
	}
	return 0, &NotFoundError{Label: label}
}

// GetIndexer returns one position per query label, with -1 for labels not in
// the index.
func (ix *Index) GetIndexer(labels []any) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		pos, err := ix.GetLoc(l)
		if err != nil {
			out[i] = -1
			continue
		}
		out[i] = pos
	}
	return out
}

// SliceIndexer translates a label range into a positional range [lo, hi).
// nil bounds are open. The result must be a contiguous positional run; an
// unsorted index only supports exact-label bounds with lo <= hi.
func (ix *Index) SliceIndexer(start, stop any) (lo, hi int, err error) {
	if ix.dtype == nd.Object {
		return 0, 0, fmt.Errorf("%w: %s labels have no order", ErrUnsupportedLabel, ix.dtype)
	}
	if start != nil && !matchesKind(ix.dtype, start) {
		return 0, 0, fmt.Errorf("%w: start %v is not a %s label", ErrUnsupportedLabel, start, ix.dtype)
	}
	if stop != nil && !matchesKind(ix.dtype, stop) {
		return 0, 0, fmt.Errorf("%w: stop %v is not a %s label", ErrUnsupportedLabel, stop, ix.dtype)
	}
	if ix.sorted {
		lo = 0
		if start != nil {
			lo = sort.Search(len(ix.labels), func(i int) bool {
				return compare(ix.dtype, ix.labels[i], start) >= 0
			})
		}
		hi = len(ix.labels)
		if stop != nil {
			// inclusive stop, like label-based slicing everywhere else
			hi = sort.Search(len(ix.labels), func(i int) bool {
				return compare(ix.dtype, ix.labels[i], stop) > 0
			})
		}
		return lo, hi, nil
	}

	lo = 0
	if start != nil {
		if lo, err = ix.GetLoc(start); err != nil {
			return 0, 0, fmt.Errorf("%w: start %v", ErrNotSliceable, start)
		}
	}
	hi = len(ix.labels)
	if stop != nil {
		p, err := ix.GetLoc(stop)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: stop %v", ErrNotSliceable, stop)
		}
		hi = p + 1
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: start is positioned after stop in an unsorted index", ErrNotSliceable)
	}
	return lo, hi, nil
}

// Isin returns the sorted, de-duplicated positions of all occurrences of the
// query labels.
func (ix *Index) Isin(labels []any) []int {
	bm := roaring.New()
	switch ix.dtype {
	case nd.Object:
		for i, v := range ix.labels {
			for _, q := range labels {
				if reflect.DeepEqual(v, q) {
					bm.Add(uint32(i))
					break
				}
			}
		}
	default:
		set := make(map[any]struct{}, len(labels))
		for _, q := range labels {
			if matchesKind(ix.dtype, q) {
				set[hashable(ix.dtype, q)] = struct{}{}
			}
		}
		for i, v := range ix.labels {
			if _, ok := set[hashable(ix.dtype, v)]; ok {
				bm.Add(uint32(i))
			}
		}
	}
	raw := bm.ToArray()
	out := make([]int, len(raw))
	for i, v := range raw {
		out[i] = int(v)
	}
	return out
}

func matchesKind(dt nd.DType, v any) bool {
	switch dt {
	case nd.Float64:
		_, ok := v.(float64)
		return ok
	case nd.Int64:
		switch v.(type) {
		case int64, int:
			return true
		}
		return false
	case nd.String:
		_, ok := v.(string)
		return ok
	case nd.Time:
		_, ok := v.(time.Time)
		return ok
	default:
		return true
	}
}

// hashable normalizes a label into a map-key-safe representation.
func hashable(dt nd.DType, v any) any {
	switch dt {
	case nd.Int64:
		if n, ok := v.(int); ok {
			return int64(n)
		}
		return v
	case nd.Time:
		return v.(time.Time).UnixNano()
	default:
		return v
	}
}

func compare(dt nd.DType, a, b any) int {
	switch dt {
	case nd.Float64:
		x, y := a.(float64), b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case nd.Int64:
		x, y := asInt64(a), asInt64(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case nd.String:
		x, y := a.(string), b.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case nd.Time:
		x, y := a.(time.Time), b.(time.Time)
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	default:
		panic("labelindex: ordered comparison on opaque labels")
	}
}

func equal(dt nd.DType, a, b any) bool {
	switch dt {
	case nd.Time:
		x, xok := a.(time.Time)
		y, yok := b.(time.Time)
		return xok && yok && x.Equal(y)
	case nd.Object:
		return reflect.DeepEqual(a, b)
	case nd.Int64:
		return asInt64(a) == asInt64(b)
	default:
		return a == b
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
