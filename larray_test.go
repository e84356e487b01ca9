package larray

import (
	"context"
	"testing"

	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/chunked"
	"github.com/hupe1980/larray/diskarray"
	"github.com/hupe1980/larray/indexing"
	"github.com/hupe1980/larray/labelindex"
	"github.com/hupe1980/larray/nd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denseSource(t *testing.T) *nd.Array {
	t.Helper()
	data := make([]int, 3*4)
	for i := range data {
		data[i] = i
	}
	arr, err := nd.FromInts(data, 3, 4)
	require.NoError(t, err)
	return arr
}

func TestIndexAndLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("keys compose lazily", func(t *testing.T) {
		a := New(denseSource(t))

		sub, err := a.Index(ctx, indexing.NewSlice(1, indexing.None, 1))
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4}, sub.Shape())

		sub, err = sub.Index(ctx, indexing.At(-1), indexing.Pick(0, 2))
		require.NoError(t, err)
		assert.Equal(t, []int{2}, sub.Shape())
		assert.Equal(t, 2, sub.Size())
		assert.Equal(t, 1, sub.NDim())

		out, err := sub.Load(ctx)
		require.NoError(t, err)
		vals, err := out.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{8, 10}, vals)
	})

	t.Run("ellipsis and full slices", func(t *testing.T) {
		a := New(denseSource(t))
		sub, err := a.Index(ctx, indexing.Ellipsis, indexing.At(0))
		require.NoError(t, err)

		out, err := sub.Load(ctx)
		require.NoError(t, err)
		vals, err := out.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 4, 8}, vals)
	})

	t.Run("zipped keys fall back to eager indexing", func(t *testing.T) {
		a := New(denseSource(t))

		sub, err := a.Index(ctx, indexing.Pick(0, 2), indexing.Pick(1, 3))
		require.NoError(t, err)
		assert.Equal(t, []int{2}, sub.Shape())

		out, err := sub.Load(ctx)
		require.NoError(t, err)
		vals, err := out.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 11}, vals)
	})

	t.Run("invalid keys surface sentinels", func(t *testing.T) {
		a := New(denseSource(t))

		_, err := a.Index(ctx, indexing.At(0), indexing.At(0), indexing.At(0))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIndex)

		_, err = a.Index(ctx, indexing.NewSlice(0, 2, 0))
		assert.ErrorIs(t, err, ErrInvalidIndexer)
	})

	t.Run("get is eager", func(t *testing.T) {
		a := New(denseSource(t))
		out, err := a.Get(ctx, indexing.At(1), indexing.At(1))
		require.NoError(t, err)
		v, err := out.Item()
		require.NoError(t, err)
		assert.Equal(t, int64(5), v)
	})
}

func TestSet(t *testing.T) {
	ctx := context.Background()

	t.Run("writes through to the backing array", func(t *testing.T) {
		src := denseSource(t)
		a := New(src)
		require.NoError(t, a.Set(ctx, indexing.Key{indexing.At(0)}, nd.ScalarOf(int64(-1))))

		v, err := src.At(0, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), v)
	})

	t.Run("copy-on-write isolates the source", func(t *testing.T) {
		src := denseSource(t)
		a := New(src, WithCopyOnWrite())
		require.NoError(t, a.Set(ctx, indexing.Key{indexing.At(0)}, nd.ScalarOf(int64(-1))))

		v, err := src.At(0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), v, "source must stay untouched")

		out, err := a.Load(ctx)
		require.NoError(t, err)
		w, err := out.At(0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), w)
	})

	t.Run("incompatible values surface sentinels", func(t *testing.T) {
		a := New(denseSource(t))
		val, err := nd.FromInts([]int{1, 2, 3}, 3)
		require.NoError(t, err)
		err = a.Set(ctx, indexing.Key{indexing.At(0), indexing.NewSlice(0, 2, 1)}, val)
		assert.ErrorIs(t, err, ErrIncompatibleValue)
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	a := New(denseSource(t), WithMemoryCache())

	first, err := a.Load(ctx)
	require.NoError(t, err)
	second, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second, "loads must be served from the cache")
}

func TestFromIndex(t *testing.T) {
	ctx := context.Background()
	ix := labelindex.NewStrings([]string{"x", "y", "z"})
	a := FromIndex(ix)

	assert.Equal(t, []int{3}, a.Shape())
	assert.Equal(t, nd.String, a.DType())

	sub, err := a.Index(ctx, indexing.Pick(2, 0))
	require.NoError(t, err)

	out, err := sub.Load(ctx)
	require.NoError(t, err)
	vals, err := out.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "x"}, vals)
}

func TestOpenChunked(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemory()
	src := denseSource(t)
	require.NoError(t, chunked.Write(ctx, store, "grid", src, []int{2, 3}, chunked.LZ4Codec{}))

	t.Run("round trip", func(t *testing.T) {
		a, err := OpenChunked(ctx, store, "grid")
		require.NoError(t, err)

		out, err := a.Load(ctx)
		require.NoError(t, err)
		assert.True(t, out.Equal(src))
	})

	t.Run("lazy selection", func(t *testing.T) {
		a, err := OpenChunked(ctx, store, "grid")
		require.NoError(t, err)

		sub, err := a.Index(ctx, indexing.NewSlice(1, 3, 1), indexing.At(2))
		require.NoError(t, err)
		out, err := sub.Load(ctx)
		require.NoError(t, err)
		vals, err := out.Int64s()
		require.NoError(t, err)
		assert.Equal(t, []int64{6, 10}, vals)
	})

	t.Run("writes are rejected", func(t *testing.T) {
		a, err := OpenChunked(ctx, store, "grid")
		require.NoError(t, err)
		err = a.Set(ctx, indexing.Key{indexing.At(0)}, nd.ScalarOf(int64(1)))
		assert.ErrorIs(t, err, ErrReadOnly)
	})

	t.Run("missing array maps to not found", func(t *testing.T) {
		_, err := OpenChunked(ctx, store, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocal(t.TempDir(), blobstore.WithWritable())

	src, err := nd.FromFloat64([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	require.NoError(t, diskarray.Create(ctx, store, "a.larr", src))

	a, err := OpenFile(ctx, store, "a.larr", WithFileLock(blobstore.NewMutexLock()))
	require.NoError(t, err)

	t.Run("lazy read", func(t *testing.T) {
		sub, err := a.Index(ctx, indexing.At(1))
		require.NoError(t, err)
		out, err := sub.Load(ctx)
		require.NoError(t, err)
		vals, err := out.Float64s()
		require.NoError(t, err)
		assert.Equal(t, []float64{4, 5, 6}, vals)
	})

	t.Run("basic write", func(t *testing.T) {
		require.NoError(t, a.Set(ctx, indexing.Key{indexing.At(0), indexing.At(0)}, nd.ScalarOf(9.5)))

		out, err := a.Get(ctx, indexing.At(0), indexing.At(0))
		require.NoError(t, err)
		v, err := out.Item()
		require.NoError(t, err)
		assert.Equal(t, 9.5, v)
	})

	t.Run("missing file maps to not found", func(t *testing.T) {
		_, err := OpenFile(ctx, store, "missing.larr")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBasicMetricsCollector(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	a := New(denseSource(t), WithMetricsCollector(metrics))

	sub, err := a.Index(ctx, indexing.At(0))
	require.NoError(t, err)
	_, err = sub.Load(ctx)
	require.NoError(t, err)

	_, err = a.Index(ctx, indexing.At(99))
	require.Error(t, err)

	require.NoError(t, a.Set(ctx, indexing.Key{indexing.At(0), indexing.At(0)}, nd.ScalarOf(int64(7))))

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.IndexCount)
	assert.Equal(t, int64(1), stats.IndexErrors)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(0), stats.LoadErrors)
	assert.Equal(t, int64(4), stats.LoadElements)
	assert.Equal(t, int64(1), stats.SetCount)
	assert.Equal(t, int64(0), stats.SetErrors)
}
