package indexing

import (
	"context"

	"github.com/hupe1980/larray/labelindex"
	"github.com/hupe1980/larray/nd"
)

// LabelIndexAdapter presents a 1-D label index as an indexable array. Labels
// reach this layer as ordinary position-based keys; the adapter's own concern
// is element-type fidelity: scalar extraction always yields a 0-d array
// (never a bare value), missing timestamps stay the canonical NaT sentinel,
// and opaque label kinds come through as Object elements instead of failing.
type LabelIndexAdapter struct {
	idx *labelindex.Index
}

// NewLabelIndexAdapter wraps idx.
func NewLabelIndexAdapter(idx *labelindex.Index) *LabelIndexAdapter {
	return &LabelIndexAdapter{idx: idx}
}

// Index returns the wrapped label index.
func (a *LabelIndexAdapter) Index() *labelindex.Index { return a.idx }

func (a *LabelIndexAdapter) Shape() []int { return []int{a.idx.Len()} }

func (a *LabelIndexAdapter) DType() nd.DType { return a.idx.DType() }

func (a *LabelIndexAdapter) Capability() Capability { return Vectorized }

func (a *LabelIndexAdapter) Get(_ context.Context, key Key) (*nd.Array, error) {
	ek, err := Expand(key, 1)
	if err != nil {
		return nil, err
	}

	size := a.idx.Len()
	switch k := ek[0].(type) {
	case Scalar:
		pos, err := normalizePositions([]int{k.Value}, size, 0)
		if err != nil {
			return nil, err
		}
		return a.scalarArray(pos[0])
	case Slice:
		return a.gather(ExpandSlice(k, size), nil)
	case BoolMask:
		if len(k.Values) != size {
			return nil, &InvalidIndexerError{
				Reason: "boolean mask length does not match index length",
			}
		}
		return a.gather(k.nonzero().Values, nil)
	case IntArray:
		vals, err := normalizePositions(k.Values, size, 0)
		if err != nil {
			return nil, err
		}
		var shape []int
		if k.Dims != nil {
			shape = k.Dims
		}
		return a.gather(vals, shape)
	default:
		return nil, &InvalidIndexerError{Reason: "unexpected " + ek[0].String() + " in expanded key"}
	}
}

func (a *LabelIndexAdapter) scalarArray(pos int) (*nd.Array, error) {
	label, err := a.idx.Label(pos)
	if err != nil {
		return nil, err
	}
	out := nd.Zeros(a.idx.DType())
	if err := out.SetFlatAt(0, label); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *LabelIndexAdapter) gather(pos []int, shape []int) (*nd.Array, error) {
	if shape == nil {
		shape = []int{len(pos)}
	}
	out := nd.Zeros(a.idx.DType(), shape...)
	for i, p := range pos {
		label, err := a.idx.Label(p)
		if err != nil {
			return nil, err
		}
		if err := out.SetFlatAt(i, label); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Set replaces labels at the selected positions. The value's element type
// must match the index exactly; anything else is an incompatible-value
// error.
func (a *LabelIndexAdapter) Set(_ context.Context, key Key, value *nd.Array) error {
	if value.DType() != a.idx.DType() {
		return &IncompatibleValueError{
			Reason: "cannot assign " + value.DType().String() + " values to a " + a.idx.DType().String() + " index",
		}
	}
	ek, err := Expand(key, 1)
	if err != nil {
		return err
	}

	size := a.idx.Len()
	var pos []int
	switch k := ek[0].(type) {
	case Scalar:
		pos, err = normalizePositions([]int{k.Value}, size, 0)
	case Slice:
		pos = ExpandSlice(k, size)
	case IntArray:
		pos, err = normalizePositions(k.Values, size, 0)
	case BoolMask:
		pos = k.nonzero().Values
	default:
		return &InvalidIndexerError{Reason: "unexpected " + ek[0].String() + " in expanded key"}
	}
	if err != nil {
		return err
	}
	if value.Size() != len(pos) {
		return &IncompatibleValueError{Reason: "value size does not match the selection"}
	}
	for i, p := range pos {
		v, err := value.FlatAt(i)
		if err != nil {
			return err
		}
		if err := a.idx.SetLabel(p, v); err != nil {
			return &IncompatibleValueError{Reason: err.Error()}
		}
	}
	return nil
}

func (a *LabelIndexAdapter) Materialize(_ context.Context) (*nd.Array, error) {
	return a.idx.Labels(), nil
}
