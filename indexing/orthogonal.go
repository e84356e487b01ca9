package indexing

// OrthogonalIndexer converts a canonical key into one usable directly for
// outer (orthogonal) indexing against an array of the given shape: boolean
// masks become integer arrays, array positions are normalized and
// bounds-checked, and slices on axes that mix with arrays are materialized
// into positions.
//
// Contiguous runs of full slices at the start or the end of the key are left
// as slices: slices are cheaper for downstream backends, and chunked backends
// in particular perform much worse with materialized fancy indices. Only the
// outermost runs are stripped, never interior ones.
func OrthogonalIndexer(key Key, shape []int) (Key, error) {
	ck, err := Canonicalize(key, len(shape))
	if err != nil {
		return nil, err
	}

	var nonScalar []int
	for i, k := range ck {
		if _, ok := k.(Scalar); !ok {
			nonScalar = append(nonScalar, i)
		}
	}

	out := ck.Clone()
	for _, n := range fullSlicesUnselected(ck, nonScalar) {
		switch k := ck[n].(type) {
		case Slice:
			out[n] = NewIntArray(ExpandSlice(k, shape[n])...)
		case IntArray:
			vals, err := normalizePositions(k.Values, shape[n], n)
			if err != nil {
				return nil, err
			}
			out[n] = NewIntArray(vals...)
		}
	}
	return out, nil
}

// fullSlicesUnselected recursively strips axes off the front and back of the
// candidate list while everything from the respective boundary up to (and
// including) the candidate is a full slice. What remains must be materialized
// into arrays for outer indexing.
func fullSlicesUnselected(key Key, candidates []int) []int {
	isFull := func(k Indexer) bool {
		s, ok := k.(Slice)
		return ok && s.IsFull()
	}
	allFull := func(from, to int) bool {
		for i := from; i < to; i++ {
			if !isFull(key[i]) {
				return false
			}
		}
		return true
	}

	if len(candidates) == 0 {
		return candidates
	}
	if allFull(0, candidates[0]+1) {
		return fullSlicesUnselected(key, candidates[1:])
	}
	if allFull(candidates[len(candidates)-1], len(key)) {
		return fullSlicesUnselected(key, candidates[:len(candidates)-1])
	}
	return candidates
}

// normalizePositions maps negative positions to their non-negative
// equivalents and bounds-checks every entry against an axis of the given
// size.
func normalizePositions(values []int, size, axis int) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		nv := v
		if nv < 0 {
			nv += size
		}
		if nv < 0 || nv >= size {
			return nil, &OutOfBoundsError{Index: v, Size: size, Axis: axis}
		}
		out[i] = nv
	}
	return out, nil
}

// countArrayAxes returns the number of axes carrying an array or mask.
func countArrayAxes(key Key) int {
	n := 0
	for _, k := range key {
		switch k.(type) {
		case IntArray, BoolMask:
			n++
		}
	}
	return n
}

// checkArrayAxes verifies the number of array axes against a declared
// capability.
func checkArrayAxes(key Key, c Capability) error {
	n := countArrayAxes(key)
	switch c {
	case Basic:
		if n > 0 {
			return &InvalidIndexerError{
				Reason: "backend accepts only slices and scalars",
			}
		}
	case OuterOneVector:
		if n > 1 {
			return &InvalidIndexerError{
				Reason: "key requires array indexers on multiple axes, but the backend supports at most one",
			}
		}
	}
	return nil
}
