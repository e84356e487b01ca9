package indexing

// Unbroadcast converts a broadcast-style (zipped) key into an orthogonal key
// when a valid orthogonal representation exists.
//
// A key of scalars and slices is already orthogonal and returned unchanged.
// Otherwise every array entry must vary along exactly its own broadcast
// dimension once raveled; arrays that genuinely zip two or more axes have no
// orthogonal representation and fail with a NotOrthogonalError. Callers that
// hit the failure must fall back to eager vectorized indexing or reject the
// request.
func Unbroadcast(key Key, shape []int) (Key, error) {
	ek, err := Expand(key, len(shape))
	if err != nil {
		return nil, err
	}

	basic := true
	for _, k := range ek {
		switch k.(type) {
		case IntArray, BoolMask:
			basic = false
		}
	}
	if basic {
		return ek, nil
	}

	iDim := 0
	out := make(Key, 0, len(ek))
	for _, k := range ek {
		switch k := k.(type) {
		case IntArray:
			dims := k.dims()
			if iDim >= len(dims) || dims[iDim] != len(k.Values) {
				return nil, &NotOrthogonalError{Key: ek}
			}
			iDim++
			out = append(out, NewIntArray(k.Values...))
		case BoolMask:
			arr := k.nonzero()
			if iDim != 0 {
				// a raveled mask varies along the first broadcast dimension
				// only; any later position means the key was zipped.
				return nil, &NotOrthogonalError{Key: ek}
			}
			iDim++
			out = append(out, arr)
		default:
			out = append(out, k)
		}
	}
	return out, nil
}

// BroadcastKey reshapes the array entries of a per-axis (outer) key into
// mutually broadcastable arrays, the equivalent of numpy.ix_: the i-th array
// entry varies along its own broadcast dimension, so a zipped interpretation
// of the result selects the N-dimensional cross product of positions.
func BroadcastKey(key Key) Key {
	nArr := 0
	for _, k := range key {
		switch k.(type) {
		case IntArray, BoolMask:
			nArr++
		}
	}
	if nArr == 0 {
		return key
	}

	out := make(Key, len(key))
	i := 0
	for n, k := range key {
		var values []int
		switch k := k.(type) {
		case IntArray:
			values = k.Values
		case BoolMask:
			values = k.nonzero().Values
		default:
			out[n] = k
			continue
		}
		dims := make([]int, nArr)
		for d := range dims {
			dims[d] = 1
		}
		dims[i] = len(values)
		out[n] = IntArray{Values: values, Dims: dims}
		i++
	}
	return out
}

// MaybeConvertToSlice detects whether an integer array indexer is an
// arithmetic progression within bounds [-size, size) and, if so, returns the
// equivalent slice after normalizing negative positions. Otherwise the
// normalized array is returned unchanged. Backends that optimize slices over
// fancy indices (notably chunked backends) call this per array axis.
func MaybeConvertToSlice(indexer IntArray, size int) (Indexer, error) {
	if indexer.Dims != nil && len(indexer.Dims) != 1 {
		return indexer, nil
	}
	vals := indexer.Values
	if len(vals) == 0 {
		return Slice{Start: 0, Stop: 0, Step: 1}, nil
	}

	for _, v := range vals {
		if v < -size || v >= size {
			return nil, &OutOfBoundsError{Index: v, Size: size, Axis: -1}
		}
	}
	norm := make([]int, len(vals))
	for i, v := range vals {
		if v < 0 {
			v += size
		}
		norm[i] = v
	}

	if len(norm) == 1 {
		return Slice{Start: norm[0], Stop: norm[0] + 1, Step: 1}, nil
	}

	start := norm[0]
	step := norm[1] - start
	if step == 0 {
		return NewIntArray(norm...), nil
	}
	guess := Slice{Start: start, Stop: start + step*len(norm), Step: step}
	if intsEqual(ExpandSlice(guess, size), norm) {
		return guess, nil
	}
	return NewIntArray(norm...), nil
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
