package indexing

import (
	"context"

	"github.com/hupe1980/larray/nd"
)

// DenseAdapter wraps an in-memory dense array with vectorized (zipped fancy)
// indexing. Set mutates the wrapped array in place.
type DenseAdapter struct {
	arr *nd.Array
}

// NewDenseAdapter wraps arr.
func NewDenseAdapter(arr *nd.Array) *DenseAdapter {
	return &DenseAdapter{arr: arr}
}

func (a *DenseAdapter) Shape() []int { return a.arr.Shape() }

func (a *DenseAdapter) DType() nd.DType { return a.arr.DType() }

func (a *DenseAdapter) Capability() Capability { return Vectorized }

func (a *DenseAdapter) Get(_ context.Context, key Key) (*nd.Array, error) {
	ek, err := Expand(key, a.arr.NDim())
	if err != nil {
		return nil, err
	}
	return vectorizedGet(a.arr, ek)
}

func (a *DenseAdapter) Set(_ context.Context, key Key, value *nd.Array) error {
	ek, err := Expand(key, a.arr.NDim())
	if err != nil {
		return err
	}
	return vectorizedSet(a.arr, ek, value)
}

// Materialize returns the backing array without copying. Wrappers that need
// isolation (CopyOnWriteArray) clone before mutating.
func (a *DenseAdapter) Materialize(_ context.Context) (*nd.Array, error) {
	return a.arr, nil
}

// selectionPlan captures everything needed to walk the elements a vectorized
// key selects from a source array.
type selectionPlan struct {
	outShape  []int
	srcShape  []int
	srcStride []int

	// per source axis
	fixed     []int   // normalized scalar position, or -1
	positions [][]int // slice axes: materialized positions, out axis aligned
	outAxisOf []int   // source axis -> position in outShape, or -1

	arrayAxes []int      // source axes carrying arrays, in order
	arrays    []IntArray // normalized values + broadcast dims
	bshape    []int      // broadcast shape of the arrays
	blockAt   int        // index in outShape where the broadcast block starts
}

// planSelection analyzes a full-length vectorized key against shape.
//
// Array entries are broadcast together and zipped. The broadcast block lands
// at the position of the first array axis when no slice axis separates the
// array axes (scalars do not break contiguity, they collapse); otherwise it
// moves to the front of the result, following fancy-indexing convention.
func planSelection(shape []int, key Key) (*selectionPlan, error) {
	p := &selectionPlan{
		srcShape:  shape,
		srcStride: nd.Strides(shape),
		fixed:     make([]int, len(shape)),
		positions: make([][]int, len(shape)),
		outAxisOf: make([]int, len(shape)),
	}

	for i, k := range key {
		p.fixed[i] = -1
		p.outAxisOf[i] = -1
		switch k := k.(type) {
		case Scalar:
			v := k.Value
			if v < 0 {
				v += shape[i]
			}
			if v < 0 || v >= shape[i] {
				return nil, &OutOfBoundsError{Index: k.Value, Size: shape[i], Axis: i}
			}
			p.fixed[i] = v
		case Slice:
			p.positions[i] = ExpandSlice(k, shape[i])
		case BoolMask:
			if len(k.Values) != shape[i] {
				return nil, &InvalidIndexerError{
					Reason: "boolean mask length does not match axis length",
				}
			}
			arr := k.nonzero()
			p.arrayAxes = append(p.arrayAxes, i)
			p.arrays = append(p.arrays, arr)
		case IntArray:
			vals, err := normalizePositions(k.Values, shape[i], i)
			if err != nil {
				return nil, err
			}
			p.arrayAxes = append(p.arrayAxes, i)
			p.arrays = append(p.arrays, IntArray{Values: vals, Dims: k.Dims})
		default:
			return nil, &InvalidIndexerError{Reason: "unexpected " + k.String() + " in expanded key"}
		}
	}

	var err error
	p.bshape, err = broadcastDims(p.arrays)
	if err != nil {
		return nil, err
	}

	// Contiguity of the array block: a slice axis strictly between the first
	// and last array axis pushes the broadcast dims to the front.
	contiguous := true
	if len(p.arrayAxes) > 0 {
		for i := p.arrayAxes[0]; i <= p.arrayAxes[len(p.arrayAxes)-1]; i++ {
			if p.positions[i] != nil {
				contiguous = false
				break
			}
		}
	}

	p.blockAt = -1
	if len(p.arrayAxes) > 0 && !contiguous {
		p.blockAt = 0
		p.outShape = append(p.outShape, p.bshape...)
	}
	for i := range shape {
		switch {
		case p.fixed[i] >= 0:
			// collapsed
		case p.positions[i] != nil:
			p.outAxisOf[i] = len(p.outShape)
			p.outShape = append(p.outShape, len(p.positions[i]))
		default:
			if p.blockAt < 0 {
				p.blockAt = len(p.outShape)
				p.outShape = append(p.outShape, p.bshape...)
			}
		}
	}
	if p.blockAt < 0 {
		p.blockAt = 0
	}
	return p, nil
}

// flatPositions enumerates, in row-major output order, the flat source
// position of every selected element.
func (p *selectionPlan) flatPositions() ([]int, error) {
	n := nd.ShapeSize(p.outShape)
	flats := make([]int, 0, n)
	coords := make([]int, len(p.outShape))

	bcoord := make([]int, len(p.bshape))
	for k := 0; k < n; k++ {
		copy(bcoord, coords[p.blockAt:p.blockAt+len(p.bshape)])

		flat := 0
		ai := 0
		for i := range p.srcShape {
			var v int
			switch {
			case p.fixed[i] >= 0:
				v = p.fixed[i]
			case p.positions[i] != nil:
				v = p.positions[i][coords[p.outAxisOf[i]]]
			default:
				v = p.arrays[ai].Values[broadcastFlat(p.arrays[ai], p.bshape, bcoord)]
				ai++
			}
			flat += p.srcStride[i] * v
		}
		flats = append(flats, flat)

		for d := len(p.outShape) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < p.outShape[d] {
				break
			}
			coords[d] = 0
		}
	}
	return flats, nil
}

// broadcastFlat maps a coordinate in the broadcast shape to the flat position
// within an array indexer whose dims are right-aligned against bshape.
func broadcastFlat(a IntArray, bshape, bcoord []int) int {
	dims := a.dims()
	off := len(bshape) - len(dims)
	strides := nd.Strides(dims)
	flat := 0
	for j, d := range dims {
		c := bcoord[off+j]
		if d == 1 {
			c = 0
		}
		flat += strides[j] * c
	}
	return flat
}

func broadcastDims(arrays []IntArray) ([]int, error) {
	rank := 0
	for _, a := range arrays {
		if len(a.dims()) > rank {
			rank = len(a.dims())
		}
	}
	out := make([]int, rank)
	for i := range out {
		out[i] = 1
	}
	for _, a := range arrays {
		dims := a.dims()
		off := rank - len(dims)
		for j, d := range dims {
			switch {
			case out[off+j] == 1:
				out[off+j] = d
			case d != 1 && d != out[off+j]:
				return nil, &InvalidIndexerError{
					Reason: "array indexers could not be broadcast together",
				}
			}
		}
	}
	return out, nil
}

// vectorizedGet applies a full-length vectorized key to a dense array.
func vectorizedGet(arr *nd.Array, key Key) (*nd.Array, error) {
	p, err := planSelection(arr.Shape(), key)
	if err != nil {
		return nil, err
	}
	flats, err := p.flatPositions()
	if err != nil {
		return nil, err
	}
	return arr.GatherTo(p.outShape, flats)
}

// vectorizedSet writes value into the elements a full-length vectorized key
// selects. The value must match the selection shape, or be a single element
// to fill with.
func vectorizedSet(arr *nd.Array, key Key, value *nd.Array) error {
	p, err := planSelection(arr.Shape(), key)
	if err != nil {
		return err
	}
	flats, err := p.flatPositions()
	if err != nil {
		return err
	}
	if value.Size() == 1 && len(flats) != 1 {
		v, err := value.Item()
		if err != nil {
			return err
		}
		for _, f := range flats {
			if err := arr.SetFlatAt(f, v); err != nil {
				return err
			}
		}
		return nil
	}
	if value.Size() != len(flats) {
		return &IncompatibleValueError{
			Reason: "value shape does not match the selection",
		}
	}
	for k, f := range flats {
		v, err := value.FlatAt(k)
		if err != nil {
			return err
		}
		if err := arr.SetFlatAt(f, v); err != nil {
			return err
		}
	}
	return nil
}
