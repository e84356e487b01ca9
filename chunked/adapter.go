package chunked

import (
	"context"

	"github.com/hupe1980/larray/indexing"
	"github.com/hupe1980/larray/nd"
)

// Adapter presents a chunked Array to the indexing core. It accepts
// vectorized keys, converts them to orthogonal per-axis selections (keys that
// cannot be orthogonalized fail), compacts position arrays back into slices
// when possible, and delegates to Read. The backend is read-only: Set always
// fails.
type Adapter struct {
	arr *Array
}

// NewAdapter wraps arr.
func NewAdapter(arr *Array) *Adapter {
	return &Adapter{arr: arr}
}

// Chunked returns the wrapped chunked array.
func (a *Adapter) Chunked() *Array { return a.arr }

func (a *Adapter) Shape() []int { return a.arr.Shape() }

func (a *Adapter) DType() nd.DType { return a.arr.DType() }

func (a *Adapter) Capability() indexing.Capability { return indexing.Vectorized }

func (a *Adapter) Get(ctx context.Context, key indexing.Key) (*nd.Array, error) {
	shape := a.arr.Shape()

	ek, err := indexing.Expand(key, len(shape))
	if err != nil {
		return nil, err
	}
	// Unbroadcast first: ix_-shaped keys carry multi-dimensional Dims that
	// Canonicalize rejects, and it strips them down to per-axis 1-d arrays.
	ub, err := indexing.Unbroadcast(ek, shape)
	if err != nil {
		return nil, err
	}
	ok, err := indexing.Canonicalize(ub, len(shape))
	if err != nil {
		return nil, err
	}

	sels := make([]AxisSel, len(ok))
	outShape := make([]int, 0, len(ok))
	for d, ix := range ok {
		switch k := ix.(type) {
		case indexing.Scalar:
			// scalar axes collapse after assembly
			sels[d] = SelPositions(k.Value)
		case indexing.Slice:
			sels[d] = AxisSel{IsSlice: true, Slice: k}
			outShape = append(outShape, k.Len(shape[d]))
		case indexing.IntArray:
			conv, err := indexing.MaybeConvertToSlice(k, shape[d])
			if err != nil {
				return nil, err
			}
			switch c := conv.(type) {
			case indexing.Slice:
				sels[d] = AxisSel{IsSlice: true, Slice: c}
			case indexing.IntArray:
				sels[d] = SelPositions(c.Values...)
			}
			outShape = append(outShape, len(k.Values))
		default:
			return nil, &indexing.InvalidIndexerError{
				Reason: "unexpected " + ix.String() + " in orthogonal key",
			}
		}
	}

	res, err := a.arr.Read(ctx, sels)
	if err != nil {
		return nil, err
	}
	// drop the length-1 axes that stand in for scalars
	return res.Reshape(outShape...)
}

func (a *Adapter) Set(_ context.Context, _ indexing.Key, _ *nd.Array) error {
	return &indexing.ReadOnlyError{Backend: "chunked"}
}

func (a *Adapter) Materialize(ctx context.Context) (*nd.Array, error) {
	sels := make([]AxisSel, a.arr.NDim())
	for d := range sels {
		sels[d] = SelAll()
	}
	return a.arr.Read(ctx, sels)
}
