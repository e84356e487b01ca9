package indexing

import (
	"context"
	"testing"

	"github.com/hupe1980/larray/nd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingBackend wraps a dense array and counts storage accesses. Keys arrive
// in the style its declared capability promises; non-vectorized styles are
// converted before delegating.
type countingBackend struct {
	arr *nd.Array
	cap Capability

	gets         int
	sets         int
	materializes int
}

func (b *countingBackend) Shape() []int           { return b.arr.Shape() }
func (b *countingBackend) DType() nd.DType        { return b.arr.DType() }
func (b *countingBackend) Capability() Capability { return b.cap }

func (b *countingBackend) Get(ctx context.Context, key Key) (*nd.Array, error) {
	b.gets++
	if b.cap != Vectorized {
		key = BroadcastKey(key)
	}
	return NewDenseAdapter(b.arr).Get(ctx, key)
}

func (b *countingBackend) Set(ctx context.Context, key Key, value *nd.Array) error {
	b.sets++
	if b.cap != Vectorized {
		key = BroadcastKey(key)
	}
	return NewDenseAdapter(b.arr).Set(ctx, key, value)
}

func (b *countingBackend) Materialize(context.Context) (*nd.Array, error) {
	b.materializes++
	return b.arr.Clone(), nil
}

func TestLazilyIndexedArray(t *testing.T) {
	ctx := context.Background()

	t.Run("composed views equal direct indexing", func(t *testing.T) {
		lz, err := NewLazilyIndexed(NewDenseAdapter(arange34(t)), nil)
		require.NoError(t, err)

		v1, err := lz.Index(Key{NewSlice(1, None, 1), Pick(0, 2, 3)})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, v1.Shape())

		v2, err := v1.Index(Key{At(1), NewSlice(0, 2, 1)})
		require.NoError(t, err)
		assert.Equal(t, []int{2}, v2.Shape())

		got, err := v2.Materialize(ctx)
		require.NoError(t, err)
		vals, err := got.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{20, 22}, vals)
	})

	t.Run("storage is read exactly once", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: Vectorized}
		lz, err := NewLazilyIndexed(b, nil)
		require.NoError(t, err)

		v, err := lz.Index(Key{NewSlice(None, 2, 1)})
		require.NoError(t, err)
		v, err = v.Index(Key{FullSlice(), Pick(1, 3)})
		require.NoError(t, err)

		assert.Equal(t, []int{2, 2}, v.Shape())
		assert.Zero(t, b.gets, "shape and narrowing must not touch storage")

		_, err = v.Materialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, b.gets)
	})

	t.Run("wrapping a lazy view composes instead of nesting", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: Vectorized}
		lz, err := NewLazilyIndexed(b, nil)
		require.NoError(t, err)

		v, err := lz.Index(Key{At(1)})
		require.NoError(t, err)

		rewrapped, err := NewLazilyIndexed(v, nil)
		require.NoError(t, err)
		assert.Same(t, b, rewrapped.Base())
	})

	t.Run("negative indices resolve against the view", func(t *testing.T) {
		lz, err := NewLazilyIndexed(NewDenseAdapter(arange34(t)), nil)
		require.NoError(t, err)

		v, err := lz.Index(Key{NewSlice(1, None, 1)}) // rows 1,2
		require.NoError(t, err)
		v, err = v.Index(Key{At(-1), At(-1)})
		require.NoError(t, err)

		got, err := v.Materialize(ctx)
		require.NoError(t, err)
		item, err := got.Item()
		require.NoError(t, err)
		assert.Equal(t, int64(23), item)
	})

	t.Run("orthogonal key converts for outer backends", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: Outer}
		lz, err := NewLazilyIndexed(b, nil)
		require.NoError(t, err)

		v, err := lz.Index(Key{Pick(0, 2)})
		require.NoError(t, err)
		v, err = v.Index(Key{FullSlice(), Pick(1, 3)})
		require.NoError(t, err)

		got, err := v.Materialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2}, got.Shape())
		vals, err := got.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3, 21, 23}, vals)
	})

	t.Run("too many array axes for a one-vector backend", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: OuterOneVector}
		lz, err := NewLazilyIndexed(b, nil)
		require.NoError(t, err)

		v, err := lz.Index(Key{Pick(0, 2)})
		require.NoError(t, err)
		v, err = v.Index(Key{FullSlice(), Pick(1, 3)})
		require.NoError(t, err)

		_, err = v.Materialize(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidIndexer)
	})

	t.Run("zipped keys have no lazy form", func(t *testing.T) {
		lz, err := NewLazilyIndexed(NewDenseAdapter(arange34(t)), nil)
		require.NoError(t, err)

		_, err = lz.Index(Key{Pick(0, 2), Pick(1, 3)})
		require.Error(t, err)

		var noe *NotOrthogonalError
		assert.ErrorAs(t, err, &noe)
	})

	t.Run("set writes through eagerly", func(t *testing.T) {
		arr := arange34(t)
		lz, err := NewLazilyIndexed(NewDenseAdapter(arr), nil)
		require.NoError(t, err)

		v, err := lz.Index(Key{NewSlice(1, None, 1)})
		require.NoError(t, err)
		require.NoError(t, v.Set(ctx, Key{At(0), At(0)}, nd.ScalarOf(int64(-5))))

		got, err := arr.At(1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(-5), got)
	})
}

func TestCopyOnWriteArray(t *testing.T) {
	ctx := context.Background()

	t.Run("reads share the base", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: Vectorized}
		cow := NewCopyOnWrite(b)

		_, err := cow.Get(ctx, Key{At(0)})
		require.NoError(t, err)
		assert.Equal(t, 1, b.gets)
		assert.Zero(t, b.materializes)
	})

	t.Run("first write copies, base stays untouched", func(t *testing.T) {
		arr := arange34(t)
		cow := NewCopyOnWrite(NewDenseAdapter(arr))

		require.NoError(t, cow.Set(ctx, Key{At(0), At(0)}, nd.ScalarOf(int64(99))))

		orig, err := arr.At(0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), orig, "shared base must not be mutated")

		own, err := cow.Materialize(ctx)
		require.NoError(t, err)
		v, err := own.At(0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(99), v)
	})

	t.Run("two wrappers over one base are isolated", func(t *testing.T) {
		arr := arange34(t)
		a := NewCopyOnWrite(NewDenseAdapter(arr))
		b := NewCopyOnWrite(NewDenseAdapter(arr))

		require.NoError(t, a.Set(ctx, Key{At(0), At(0)}, nd.ScalarOf(int64(1))))
		require.NoError(t, b.Set(ctx, Key{At(0), At(0)}, nd.ScalarOf(int64(2))))

		av, err := a.Materialize(ctx)
		require.NoError(t, err)
		bv, err := b.Materialize(ctx)
		require.NoError(t, err)

		x, _ := av.At(0, 0)
		y, _ := bv.At(0, 0)
		assert.Equal(t, int64(1), x)
		assert.Equal(t, int64(2), y)
	})
}

func TestMemoryCachedArray(t *testing.T) {
	ctx := context.Background()

	t.Run("materializes at most once", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: Vectorized}
		mc := NewMemoryCached(b)

		first, err := mc.Materialize(ctx)
		require.NoError(t, err)
		second, err := mc.Materialize(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, b.materializes)
		assert.Same(t, first, second)
	})

	t.Run("gets hit the cache after concretization", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: Vectorized}
		mc := NewMemoryCached(b)

		_, err := mc.Materialize(ctx)
		require.NoError(t, err)

		got, err := mc.Get(ctx, Key{At(2), At(3)})
		require.NoError(t, err)
		assert.Zero(t, b.gets)

		v, err := got.Item()
		require.NoError(t, err)
		assert.Equal(t, int64(23), v)
	})

	t.Run("narrowing stays lazy before concretization", func(t *testing.T) {
		b := &countingBackend{arr: arange34(t), cap: Vectorized}
		lz, err := NewLazilyIndexed(b, nil)
		require.NoError(t, err)
		mc := NewMemoryCached(lz)

		narrowed, err := mc.Index(ctx, Key{At(1)})
		require.NoError(t, err)
		assert.Zero(t, b.gets)
		assert.Equal(t, []int{4}, narrowed.Shape())

		got, err := narrowed.Materialize(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, b.gets)
		vals, err := got.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 11, 12, 13}, vals)
	})
}

func TestExplicitIndexingAdapter(t *testing.T) {
	ctx := context.Background()
	shape := []int{3, 4}

	capture := func(dst *Key) GetFunc {
		return func(_ context.Context, key Key) (*nd.Array, error) {
			*dst = key
			return nd.Zeros(nd.Int64), nil
		}
	}

	t.Run("vectorized backends get the expanded key", func(t *testing.T) {
		var got Key
		_, err := ExplicitIndexingAdapter(ctx, Key{At(1)}, shape, Vectorized, capture(&got))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, Scalar{Value: 1}, got[0])
		assert.Equal(t, FullSlice(), got[1])
	})

	t.Run("outer backends get an orthogonal key", func(t *testing.T) {
		var got Key
		key := BroadcastKey(Key{Pick(0, 2), Pick(1, 3)})
		_, err := ExplicitIndexingAdapter(ctx, key, shape, Outer, capture(&got))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, NewIntArray(0, 2), got[0])
		assert.Equal(t, NewIntArray(1, 3), got[1])
	})

	t.Run("one-vector backends reject a second array axis", func(t *testing.T) {
		key := BroadcastKey(Key{Pick(0, 2), Pick(1, 3)})
		_, err := ExplicitIndexingAdapter(ctx, key, shape, OuterOneVector, capture(new(Key)))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidIndexer)
	})

	t.Run("basic backends reject arrays entirely", func(t *testing.T) {
		_, err := ExplicitIndexingAdapter(ctx, Key{Pick(0)}, shape, Basic, capture(new(Key)))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidIndexer)
	})
}
