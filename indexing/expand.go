package indexing

// Expand returns an equivalent key with exactly ndim entries, one per
// dimension. A single Ellipsis is replaced by the right number of full
// slices; a key shorter than ndim is right-padded with full slices. A key
// with more non-Ellipsis entries than ndim fails with a TooManyIndicesError.
func Expand(key Key, ndim int) (Key, error) {
	out := make(Key, 0, ndim)
	foundEllipsis := false
	for _, k := range key {
		if _, ok := k.(ellipsisIndexer); ok {
			if !foundEllipsis {
				for i := 0; i < ndim+1-len(key); i++ {
					out = append(out, FullSlice())
				}
				foundEllipsis = true
			} else {
				out = append(out, FullSlice())
			}
			continue
		}
		if s, ok := k.(Slice); ok && s.Step == 0 {
			return nil, &InvalidIndexerError{Reason: "slice step cannot be zero"}
		}
		out = append(out, k)
	}
	if len(out) > ndim {
		return nil, &TooManyIndicesError{Got: len(out), NDim: ndim}
	}
	for len(out) < ndim {
		out = append(out, FullSlice())
	}
	return out, nil
}

// Canonicalize expands the key and normalizes each entry for orthogonal
// indexing: boolean masks become integer arrays via their true positions, and
// array entries must be at most 1-D.
func Canonicalize(key Key, ndim int) (Key, error) {
	ek, err := Expand(key, ndim)
	if err != nil {
		return nil, err
	}
	out := make(Key, len(ek))
	for i, k := range ek {
		switch k := k.(type) {
		case Slice, Scalar:
			out[i] = k
		case BoolMask:
			out[i] = k.nonzero()
		case IntArray:
			dims := k.dims()
			switch {
			case len(dims) == 0:
				// 0-d array degenerates to a scalar and collapses the axis.
				out[i] = Scalar{Value: k.Values[0]}
			case len(dims) == 1:
				out[i] = NewIntArray(k.Values...)
			default:
				return nil, &InvalidIndexerError{
					Reason: "orthogonal array indexing only supports 1-d arrays",
				}
			}
		default:
			return nil, &InvalidIndexerError{
				Reason: "subkeys must be slices, integers or sequences of integers or booleans",
			}
		}
	}
	return out, nil
}
