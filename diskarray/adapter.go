package diskarray

import (
	"context"

	"github.com/hupe1980/larray/indexing"
	"github.com/hupe1980/larray/nd"
)

var (
	errReadOnlyBlob = &indexing.ReadOnlyError{Backend: "diskarray"}
	errValueDType   = &indexing.IncompatibleValueError{Reason: "value dtype does not match the array"}
	errValueShape   = &indexing.IncompatibleValueError{Reason: "value size does not match the selection"}
)

// Adapter presents a file-backed Array to the indexing core. Its capability
// is Outer: the core converts broadcast keys into per-axis form before they
// reach Get.
type Adapter struct {
	arr *Array
}

// NewAdapter wraps arr.
func NewAdapter(arr *Array) *Adapter {
	return &Adapter{arr: arr}
}

// Disk returns the wrapped file-backed array.
func (a *Adapter) Disk() *Array { return a.arr }

func (a *Adapter) Shape() []int { return a.arr.Shape() }

func (a *Adapter) DType() nd.DType { return a.arr.DType() }

func (a *Adapter) Capability() indexing.Capability { return indexing.Outer }

// perAxisPositions lowers an expanded orthogonal key into one normalized
// position list per axis, plus the output shape with scalar axes dropped.
func (a *Adapter) perAxisPositions(key indexing.Key) (perAxis [][]int, outShape []int, err error) {
	shape := a.arr.Shape()

	ek, err := indexing.Expand(key, len(shape))
	if err != nil {
		return nil, nil, err
	}
	ck, err := indexing.Canonicalize(ek, len(shape))
	if err != nil {
		return nil, nil, err
	}
	ok, err := indexing.OrthogonalIndexer(ck, shape)
	if err != nil {
		return nil, nil, err
	}

	perAxis = make([][]int, len(ok))
	outShape = make([]int, 0, len(ok))
	for d, ix := range ok {
		switch k := ix.(type) {
		case indexing.Scalar:
			v := k.Value
			if v < 0 {
				v += shape[d]
			}
			if v < 0 || v >= shape[d] {
				return nil, nil, &indexing.OutOfBoundsError{Index: k.Value, Size: shape[d], Axis: d}
			}
			perAxis[d] = []int{v}
		case indexing.Slice:
			perAxis[d] = indexing.ExpandSlice(k, shape[d])
			outShape = append(outShape, len(perAxis[d]))
		case indexing.IntArray:
			perAxis[d] = k.Values
			outShape = append(outShape, len(k.Values))
		default:
			return nil, nil, &indexing.InvalidIndexerError{
				Reason: "unexpected " + ix.String() + " in orthogonal key",
			}
		}
	}
	return perAxis, outShape, nil
}

func (a *Adapter) Get(ctx context.Context, key indexing.Key) (*nd.Array, error) {
	perAxis, outShape, err := a.perAxisPositions(key)
	if err != nil {
		return nil, err
	}
	res, err := a.arr.Read(ctx, perAxis)
	if err != nil {
		return nil, err
	}
	return res.Reshape(outShape...)
}

// Set writes value through basic keys only: scalars and slices. Anything
// fancier must go through a materialized copy.
func (a *Adapter) Set(ctx context.Context, key indexing.Key, value *nd.Array) error {
	ek, err := indexing.Expand(key, a.arr.NDim())
	if err != nil {
		return err
	}
	for _, ix := range ek {
		switch ix.(type) {
		case indexing.Scalar, indexing.Slice:
		default:
			return &indexing.InvalidIndexerError{
				Reason: "file-backed writes support scalars and slices only",
			}
		}
	}
	perAxis, _, err := a.perAxisPositions(ek)
	if err != nil {
		return err
	}
	return a.arr.WriteBasic(ctx, perAxis, value)
}

func (a *Adapter) Materialize(ctx context.Context) (*nd.Array, error) {
	shape := a.arr.Shape()
	perAxis := make([][]int, len(shape))
	for d, n := range shape {
		perAxis[d] = make([]int, n)
		for i := range perAxis[d] {
			perAxis[d][i] = i
		}
	}
	res, err := a.arr.Read(ctx, perAxis)
	if err != nil {
		return nil, err
	}
	return res.Reshape(shape...)
}
