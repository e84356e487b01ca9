package indexing

// SliceSlice composes two slices applied in sequence to an axis of the given
// size into one equivalent slice. The start and stop are reconstructed from
// the materialized position sequence: composing only the steps is incorrect
// for non-trivial start/stop combinations.
func SliceSlice(old, applied Slice, size int) Slice {
	step := old.step() * applied.step()

	items := takeSlice(ExpandSlice(old, size), applied)
	var start, stop int
	if len(items) > 0 {
		start = items[0]
		stop = items[len(items)-1] + step
		if stop < 0 {
			stop = None
		}
	} else {
		start, stop = 0, 0
	}
	return Slice{Start: start, Stop: stop, Step: step}
}

// takeSlice applies a slice to a materialized position sequence.
func takeSlice(pos []int, s Slice) []int {
	start, stop, step := s.Indices(len(pos))
	out := make([]int, 0, s.Len(len(pos)))
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, pos[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, pos[i])
		}
	}
	return out
}

// takePositions applies a canonical indexer to a materialized position
// sequence, producing the composed indexer. The axis argument is only used
// for error reporting.
func takePositions(pos []int, applied Indexer, axis int) (Indexer, error) {
	n := len(pos)
	norm := func(v int) (int, error) {
		if v < 0 {
			v += n
		}
		if v < 0 || v >= n {
			return 0, &OutOfBoundsError{Index: v, Size: n, Axis: axis}
		}
		return v, nil
	}

	switch a := applied.(type) {
	case Scalar:
		v, err := norm(a.Value)
		if err != nil {
			return nil, err
		}
		return Scalar{Value: pos[v]}, nil
	case Slice:
		return NewIntArray(takeSlice(pos, a)...), nil
	case IntArray:
		out := make([]int, len(a.Values))
		for i, v := range a.Values {
			nv, err := norm(v)
			if err != nil {
				return nil, err
			}
			out[i] = pos[nv]
		}
		return IntArray{Values: out, Dims: a.Dims}, nil
	case BoolMask:
		if len(a.Values) != n {
			return nil, &InvalidIndexerError{
				Reason: "boolean mask length does not match axis length",
			}
		}
		return takePositions(pos, a.nonzero(), axis)
	default:
		return nil, &InvalidIndexerError{Reason: "cannot compose with " + applied.String()}
	}
}

// ComposeIndexer1D composes an indexer already applied to an axis of extent
// size with a new indexer applied on the result of the first, yielding one
// indexer equivalent to applying both in sequence.
func ComposeIndexer1D(old, applied Indexer, size, axis int) (Indexer, error) {
	// Fast path: re-indexing with a full slice is a no-op.
	if s, ok := applied.(Slice); ok && s.IsFull() {
		return old, nil
	}

	switch o := old.(type) {
	case Slice:
		if s, ok := applied.(Slice); ok {
			return SliceSlice(o, s, size), nil
		}
		return takePositions(ExpandSlice(o, size), applied, axis)
	case IntArray:
		return takePositions(o.Values, applied, axis)
	case BoolMask:
		return takePositions(o.nonzero().Values, applied, axis)
	default:
		return nil, &InvalidIndexerError{
			Reason: "cannot compose onto collapsed axis " + old.String(),
		}
	}
}

// ComposeKey folds newKey into oldKey. oldKey has one entry per axis of the
// base array (extent baseShape); newKey has one entry per axis of the logical
// result of oldKey. Axes oldKey collapsed to a Scalar have vanished from the
// logical shape, so newKey entries are aligned against the remaining axes
// only.
func ComposeKey(baseShape []int, oldKey, newKey Key) (Key, error) {
	out := make(Key, 0, len(oldKey))
	j := 0
	for i, k := range oldKey {
		if _, ok := k.(Scalar); ok {
			out = append(out, k)
			continue
		}
		if j >= len(newKey) {
			return nil, &InvalidIndexerError{Reason: "key does not cover all remaining axes"}
		}
		composed, err := ComposeIndexer1D(k, newKey[j], baseShape[i], i)
		if err != nil {
			return nil, err
		}
		out = append(out, composed)
		j++
	}
	if j != len(newKey) {
		return nil, &TooManyIndicesError{Got: len(newKey), NDim: j}
	}
	return out, nil
}
