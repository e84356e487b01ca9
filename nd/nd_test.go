package nd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstruction(t *testing.T) {
	t.Run("shape defaults to 1-d", func(t *testing.T) {
		a, err := FromFloat64([]float64{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, []int{3}, a.Shape())
		assert.Equal(t, Float64, a.DType())
	})

	t.Run("explicit shape must match the data", func(t *testing.T) {
		_, err := FromInts([]int{1, 2, 3}, 2, 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("negative axis length", func(t *testing.T) {
		_, err := FromInts([]int{}, -1)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("constructors copy their input", func(t *testing.T) {
		data := []int64{1, 2}
		a, err := FromInt64(data)
		require.NoError(t, err)
		data[0] = 99

		vals, err := a.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, vals)
	})

	t.Run("zeros", func(t *testing.T) {
		a := Zeros(String, 2, 3)
		assert.Equal(t, 6, a.Size())
		v, err := a.At(1, 2)
		require.NoError(t, err)
		assert.Equal(t, "", v)
	})
}

func TestAtSetAt(t *testing.T) {
	a, err := FromInts([]int{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	v, err := a.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6), v)

	require.NoError(t, a.SetAt(60, 1, 2))
	v, err = a.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(60), v)

	_, err = a.At(2, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = a.At(0)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCoercion(t *testing.T) {
	t.Run("int widens into int64 and float64", func(t *testing.T) {
		a := Zeros(Float64, 1)
		require.NoError(t, a.SetFlatAt(0, 7))
		v, err := a.FlatAt(0)
		require.NoError(t, err)
		assert.Equal(t, float64(7), v)

		b := Zeros(Int64, 1)
		require.NoError(t, b.SetFlatAt(0, 7))
		v, err = b.FlatAt(0)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})

	t.Run("cross-kind stores are rejected", func(t *testing.T) {
		a := Zeros(Int64, 1)
		assert.ErrorIs(t, a.SetFlatAt(0, "nope"), ErrDTypeMismatch)

		b := Zeros(Bool, 1)
		assert.ErrorIs(t, b.SetFlatAt(0, 1), ErrDTypeMismatch)
	})

	t.Run("object accepts anything", func(t *testing.T) {
		a := Zeros(Object, 2)
		require.NoError(t, a.SetFlatAt(0, []string{"x"}))
		require.NoError(t, a.SetFlatAt(1, 42))
	})
}

func TestScalarOf(t *testing.T) {
	a := ScalarOf(int64(5))
	assert.Equal(t, 0, a.NDim())
	assert.Equal(t, 1, a.Size())
	assert.Equal(t, Int64, a.DType())

	v, err := a.Item()
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	assert.Equal(t, Time, ScalarOf(time.Now()).DType())
	assert.Equal(t, Object, ScalarOf(struct{}{}).DType())

	big, err := FromInts([]int{1, 2})
	require.NoError(t, err)
	_, err = big.Item()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestGatherScatter(t *testing.T) {
	a, err := FromInts([]int{10, 11, 12, 13, 14, 15}, 2, 3)
	require.NoError(t, err)

	t.Run("gather reorders into a new shape", func(t *testing.T) {
		got, err := a.GatherTo([]int{2, 2}, []int{5, 4, 1, 0})
		require.NoError(t, err)
		vals, err := got.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{15, 14, 11, 10}, vals)
	})

	t.Run("gather validates positions", func(t *testing.T) {
		_, err := a.GatherTo([]int{1}, []int{6})
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = a.GatherTo([]int{3}, []int{0})
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("scatter writes through", func(t *testing.T) {
		dst := a.Clone()
		src, err := FromInts([]int{-1, -2}, 2)
		require.NoError(t, err)
		require.NoError(t, dst.Scatter([]int{0, 5}, src))

		vals, err := dst.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{-1, 11, 12, 13, 14, -2}, vals)
	})
}

func TestReshapeSharesBuffer(t *testing.T) {
	a, err := FromInts([]int{1, 2, 3, 4}, 4)
	require.NoError(t, err)

	b, err := a.Reshape(2, 2)
	require.NoError(t, err)
	require.NoError(t, b.SetAt(99, 0, 1))

	v, err := a.At(1)
	require.NoError(t, err)
	assert.Equal(t, int64(99), v, "reshape must alias the same elements")

	_, err = a.Reshape(3)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCloneIsolates(t *testing.T) {
	a, err := FromInts([]int{1, 2}, 2)
	require.NoError(t, err)
	b := a.Clone()
	require.NoError(t, b.SetAt(5, 0))

	v, err := a.At(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestEqual(t *testing.T) {
	a, _ := FromInts([]int{1, 2, 3, 4}, 2, 2)
	b, _ := FromInts([]int{1, 2, 3, 4}, 2, 2)
	flat, _ := FromInts([]int{1, 2, 3, 4}, 4)
	other, _ := FromInts([]int{1, 2, 3, 5}, 2, 2)
	f, _ := FromFloat64([]float64{1, 2, 3, 4}, 2, 2)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(flat), "same data, different shape")
	assert.False(t, a.Equal(other))
	assert.False(t, a.Equal(f), "dtype is part of equality")
	assert.False(t, a.Equal(nil))
}

func TestFill(t *testing.T) {
	a := Zeros(Bool, 3)
	require.NoError(t, a.Fill(true))
	vals, err := a.Bools()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, vals)

	assert.ErrorIs(t, a.Fill("x"), ErrDTypeMismatch)
}

func TestNaT(t *testing.T) {
	assert.True(t, IsNaT(NaT))
	assert.False(t, IsNaT(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	a, err := FromTimes([]time.Time{NaT})
	require.NoError(t, err)
	v, err := a.At(0)
	require.NoError(t, err)
	assert.True(t, IsNaT(v.(time.Time)))
}
