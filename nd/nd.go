package nd

import (
	"fmt"
	"time"
)

// Array is a dense, row-major N-dimensional array. A zero-dimensional Array
// holds exactly one element and stands in for a bare scalar so that callers
// never lose dtype information.
type Array struct {
	shape []int
	buf   buffer
}

// ShapeSize returns the number of elements implied by shape. The empty shape
// has size 1 (a 0-d scalar array).
func ShapeSize(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Strides returns row-major element strides for shape.
func Strides(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}
	return st
}

// FlatIndex maps coords to a flat row-major position using strides.
func FlatIndex(strides, coords []int) int {
	n := 0
	for i, c := range coords {
		n += strides[i] * c
	}
	return n
}

// SameShape reports whether a and b are identical shapes.
func SameShape(a, b []int) bool {
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

func newArray(shape []int, buf buffer) (*Array, error) {
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("%w: negative axis length %d", ErrShapeMismatch, s)
		}
	}
	if ShapeSize(shape) != buf.len() {
		return nil, fmt.Errorf("%w: shape %v implies %d elements, got %d",
			ErrShapeMismatch, shape, ShapeSize(shape), buf.len())
	}
	cp := make([]int, len(shape))
	copy(cp, shape)
	return &Array{shape: cp, buf: buf}, nil
}

// Zeros returns a zero-valued array of the given dtype and shape.
func Zeros(dt DType, shape ...int) *Array {
	a, err := newArray(shape, allocBuffer(dt, ShapeSize(shape)))
	if err != nil {
		panic(err)
	}
	return a
}

// FromFloat64 builds a Float64 array from data. With no shape, the array is
// 1-D over the full slice.
func FromFloat64(data []float64, shape ...int) (*Array, error) {
	cp := make([]float64, len(data))
	copy(cp, data)
	return fromSlice(Float64, &typedBuffer[float64]{dt: Float64, data: cp, eq: comparableEq[float64]}, shape)
}

// FromInt64 builds an Int64 array from data.
func FromInt64(data []int64, shape ...int) (*Array, error) {
	cp := make([]int64, len(data))
	copy(cp, data)
	return fromSlice(Int64, &typedBuffer[int64]{dt: Int64, data: cp, eq: comparableEq[int64]}, shape)
}

// FromInts is a convenience variant of FromInt64 for untyped literals.
func FromInts(data []int, shape ...int) (*Array, error) {
	cp := make([]int64, len(data))
	for i, v := range data {
		cp[i] = int64(v)
	}
	return fromSlice(Int64, &typedBuffer[int64]{dt: Int64, data: cp, eq: comparableEq[int64]}, shape)
}

// FromBool builds a Bool array from data.
func FromBool(data []bool, shape ...int) (*Array, error) {
	cp := make([]bool, len(data))
	copy(cp, data)
	return fromSlice(Bool, &typedBuffer[bool]{dt: Bool, data: cp, eq: comparableEq[bool]}, shape)
}

// FromStrings builds a String array from data.
func FromStrings(data []string, shape ...int) (*Array, error) {
	cp := make([]string, len(data))
	copy(cp, data)
	return fromSlice(String, &typedBuffer[string]{dt: String, data: cp, eq: comparableEq[string]}, shape)
}

// FromTimes builds a Time array from data.
func FromTimes(data []time.Time, shape ...int) (*Array, error) {
	cp := make([]time.Time, len(data))
	copy(cp, data)
	return fromSlice(Time, &typedBuffer[time.Time]{dt: Time, data: cp, eq: timeEq}, shape)
}

// FromObjects builds an Object array from data.
func FromObjects(data []any, shape ...int) (*Array, error) {
	cp := make([]any, len(data))
	copy(cp, data)
	return fromSlice(Object, &typedBuffer[any]{dt: Object, data: cp, eq: objectEq}, shape)
}

func fromSlice(dt DType, buf buffer, shape []int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{buf.len()}
	}
	return newArray(shape, buf)
}

// ScalarOf wraps a single value in a 0-d array, inferring the dtype from the
// Go type. Unrecognized types land in Object.
func ScalarOf(v any) *Array {
	var dt DType
	switch v.(type) {
	case bool:
		dt = Bool
	case int, int64:
		dt = Int64
	case float64:
		dt = Float64
	case string:
		dt = String
	case time.Time:
		dt = Time
	default:
		dt = Object
	}
	a := Zeros(dt) // 0-d: one element, no axes
	_ = a.buf.setAt(0, v)
	return a
}

// Shape returns a copy of the array shape.
func (a *Array) Shape() []int {
	cp := make([]int, len(a.shape))
	copy(cp, a.shape)
	return cp
}

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.shape) }

// Size returns the total number of elements.
func (a *Array) Size() int { return a.buf.len() }

// DType returns the element type.
func (a *Array) DType() DType { return a.buf.dtype() }

// At returns the element at the given coordinates.
func (a *Array) At(coords ...int) (any, error) {
	i, err := a.flatOf(coords)
	if err != nil {
		return nil, err
	}
	return a.buf.at(i), nil
}

// SetAt stores v at the given coordinates.
func (a *Array) SetAt(v any, coords ...int) error {
	i, err := a.flatOf(coords)
	if err != nil {
		return err
	}
	return a.buf.setAt(i, v)
}

func (a *Array) flatOf(coords []int) (int, error) {
	if len(coords) != len(a.shape) {
		return 0, fmt.Errorf("%w: got %d coordinates for %d dimensions",
			ErrShapeMismatch, len(coords), len(a.shape))
	}
	st := Strides(a.shape)
	flat := 0
	for i, c := range coords {
		if c < 0 || c >= a.shape[i] {
			return 0, fmt.Errorf("%w: coordinate %d on axis %d of length %d",
				ErrOutOfRange, c, i, a.shape[i])
		}
		flat += st[i] * c
	}
	return flat, nil
}

// FlatAt returns the element at flat row-major position i.
func (a *Array) FlatAt(i int) (any, error) {
	if i < 0 || i >= a.buf.len() {
		return nil, fmt.Errorf("%w: flat position %d of %d", ErrOutOfRange, i, a.buf.len())
	}
	return a.buf.at(i), nil
}

// SetFlatAt stores v at flat row-major position i.
func (a *Array) SetFlatAt(i int, v any) error {
	if i < 0 || i >= a.buf.len() {
		return fmt.Errorf("%w: flat position %d of %d", ErrOutOfRange, i, a.buf.len())
	}
	return a.buf.setAt(i, v)
}

// Item returns the single element of a size-1 array.
func (a *Array) Item() (any, error) {
	if a.buf.len() != 1 {
		return nil, fmt.Errorf("%w: Item on array of size %d", ErrShapeMismatch, a.buf.len())
	}
	return a.buf.at(0), nil
}

// GatherTo builds a new array of the given shape whose k-th element (in
// row-major order) is the element of a at flat position flat[k].
func (a *Array) GatherTo(shape []int, flat []int) (*Array, error) {
	if ShapeSize(shape) != len(flat) {
		return nil, fmt.Errorf("%w: shape %v implies %d positions, got %d",
			ErrShapeMismatch, shape, ShapeSize(shape), len(flat))
	}
	for _, i := range flat {
		if i < 0 || i >= a.buf.len() {
			return nil, fmt.Errorf("%w: flat position %d of %d", ErrOutOfRange, i, a.buf.len())
		}
	}
	return newArray(shape, a.buf.gather(flat))
}

// Scatter writes the elements of src (in row-major order) into a at the given
// flat positions.
func (a *Array) Scatter(flat []int, src *Array) error {
	if src.Size() != len(flat) {
		return fmt.Errorf("%w: %d positions for %d source elements",
			ErrShapeMismatch, len(flat), src.Size())
	}
	for k, i := range flat {
		if i < 0 || i >= a.buf.len() {
			return fmt.Errorf("%w: flat position %d of %d", ErrOutOfRange, i, a.buf.len())
		}
		if err := a.buf.setAt(i, src.buf.at(k)); err != nil {
			return err
		}
	}
	return nil
}

// Fill sets every element of a to v.
func (a *Array) Fill(v any) error {
	for i := 0; i < a.buf.len(); i++ {
		if err := a.buf.setAt(i, v); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	cp := make([]int, len(a.shape))
	copy(cp, a.shape)
	return &Array{shape: cp, buf: a.buf.clone()}
}

// Reshape returns a view of the same elements under a new shape of equal size.
// The buffer is shared with the receiver.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if ShapeSize(shape) != a.buf.len() {
		return nil, fmt.Errorf("%w: cannot reshape %v to %v", ErrShapeMismatch, a.shape, shape)
	}
	cp := make([]int, len(shape))
	copy(cp, shape)
	return &Array{shape: cp, buf: a.buf}, nil
}

// Equal reports elementwise equality of shape, dtype and values.
func (a *Array) Equal(b *Array) bool {
	if b == nil || a.DType() != b.DType() || !SameShape(a.shape, b.shape) {
		return false
	}
	for i := 0; i < a.buf.len(); i++ {
		if !a.buf.equalAt(i, b.buf, i) {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	return fmt.Sprintf("nd.Array(dtype=%s, shape=%v)", a.DType(), a.shape)
}

// Float64s returns the elements of a Float64 array in row-major order.
func (a *Array) Float64s() ([]float64, error) {
	if a.DType() != Float64 {
		return nil, fmt.Errorf("%w: Float64s on %s array", ErrDTypeMismatch, a.DType())
	}
	return a.buf.(*typedBuffer[float64]).data, nil
}

// Int64s returns the elements of an Int64 array in row-major order.
func (a *Array) Int64s() ([]int64, error) {
	if a.DType() != Int64 {
		return nil, fmt.Errorf("%w: Int64s on %s array", ErrDTypeMismatch, a.DType())
	}
	return a.buf.(*typedBuffer[int64]).data, nil
}

// Bools returns the elements of a Bool array in row-major order.
func (a *Array) Bools() ([]bool, error) {
	if a.DType() != Bool {
		return nil, fmt.Errorf("%w: Bools on %s array", ErrDTypeMismatch, a.DType())
	}
	return a.buf.(*typedBuffer[bool]).data, nil
}

// Strings returns the elements of a String array in row-major order.
func (a *Array) Strings() ([]string, error) {
	if a.DType() != String {
		return nil, fmt.Errorf("%w: Strings on %s array", ErrDTypeMismatch, a.DType())
	}
	return a.buf.(*typedBuffer[string]).data, nil
}

// Times returns the elements of a Time array in row-major order.
func (a *Array) Times() ([]time.Time, error) {
	if a.DType() != Time {
		return nil, fmt.Errorf("%w: Times on %s array", ErrDTypeMismatch, a.DType())
	}
	return a.buf.(*typedBuffer[time.Time]).data, nil
}
