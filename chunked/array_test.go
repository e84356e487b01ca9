package chunked

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/indexing"
	"github.com/hupe1980/larray/nd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture stores a 6x7 int64 array with 4x3 chunks, so the grid is 2x3
// with ragged edge chunks.
func writeFixture(t *testing.T, codec Codec) (*blobstore.Memory, *nd.Array) {
	t.Helper()

	data := make([]int, 6*7)
	for i := range data {
		data[i] = i * 10
	}
	arr, err := nd.FromInts(data, 6, 7)
	require.NoError(t, err)

	store := blobstore.NewMemory()
	require.NoError(t, Write(context.Background(), store, "arrays/fixture", arr, []int{4, 3}, codec))
	return store, arr
}

func openFixture(t *testing.T, store blobstore.Store, optFns ...ArrayOption) *Array {
	t.Helper()
	a, err := Open(context.Background(), store, "arrays/fixture", optFns...)
	require.NoError(t, err)
	return a
}

func TestWriteOpen(t *testing.T) {
	store, _ := writeFixture(t, LZ4Codec{})
	a := openFixture(t, store)

	assert.Equal(t, []int{6, 7}, a.Shape())
	assert.Equal(t, []int{4, 3}, a.ChunkShape())
	assert.Equal(t, []int{2, 3}, a.Grid())
	assert.Equal(t, 6, a.NumChunks())
	assert.Equal(t, nd.Int64, a.DType())
	assert.Equal(t, 2, a.NDim())
}

func TestReadEqualsDense(t *testing.T) {
	store, dense := writeFixture(t, ZstdCodec{})
	a := openFixture(t, store)
	ctx := context.Background()

	t.Run("full read", func(t *testing.T) {
		got, err := a.Read(ctx, []AxisSel{SelAll(), SelAll()})
		require.NoError(t, err)
		assert.True(t, got.Equal(dense))
	})

	t.Run("strided slice across chunk boundaries", func(t *testing.T) {
		got, err := a.Read(ctx, []AxisSel{SelSlice(1, indexing.None, 2), SelSlice(0, 5, 1)})
		require.NoError(t, err)
		require.Equal(t, []int{3, 5}, got.Shape())

		for i, row := range []int{1, 3, 5} {
			for j := 0; j < 5; j++ {
				v, err := got.At(i, j)
				require.NoError(t, err)
				want, err := dense.At(row, j)
				require.NoError(t, err)
				assert.Equal(t, want, v)
			}
		}
	})

	t.Run("out-of-order and negative positions", func(t *testing.T) {
		got, err := a.Read(ctx, []AxisSel{SelPositions(5, 0, -1), SelPositions(6, 2)})
		require.NoError(t, err)
		require.Equal(t, []int{3, 2}, got.Shape())

		for i, row := range []int{5, 0, 5} {
			for j, col := range []int{6, 2} {
				v, err := got.At(i, j)
				require.NoError(t, err)
				want, err := dense.At(row, col)
				require.NoError(t, err)
				assert.Equal(t, want, v)
			}
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		got, err := a.Read(ctx, []AxisSel{SelPositions(), SelAll()})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 7}, got.Shape())
	})

	t.Run("position out of bounds", func(t *testing.T) {
		_, err := a.Read(ctx, []AxisSel{SelPositions(6), SelAll()})
		require.Error(t, err)
		assert.ErrorIs(t, err, indexing.ErrIndex)
	})

	t.Run("wrong selection rank", func(t *testing.T) {
		_, err := a.Read(ctx, []AxisSel{SelAll()})
		require.Error(t, err)
		assert.ErrorIs(t, err, indexing.ErrInvalidIndexer)
	})
}

func TestTimeRoundTrip(t *testing.T) {
	ctx := context.Background()
	day := func(d int) time.Time {
		return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
	}
	arr, err := nd.FromTimes([]time.Time{day(1), nd.NaT, day(3), day(4)}, 4)
	require.NoError(t, err)

	store := blobstore.NewMemory()
	require.NoError(t, Write(ctx, store, "arrays/times", arr, []int{3}, RawCodec{}))

	a, err := Open(ctx, store, "arrays/times")
	require.NoError(t, err)

	got, err := a.Read(ctx, []AxisSel{SelAll()})
	require.NoError(t, err)

	times, err := got.Times()
	require.NoError(t, err)
	assert.True(t, times[0].Equal(day(1)))
	assert.True(t, nd.IsNaT(times[1]))
	assert.True(t, times[3].Equal(day(4)))
}

func TestChunkCache(t *testing.T) {
	ctx := context.Background()

	t.Run("preload warms every chunk", func(t *testing.T) {
		store, _ := writeFixture(t, LZ4Codec{})
		a := openFixture(t, store, WithParallelism(2))

		require.NoError(t, a.Preload(ctx))
		assert.Equal(t, a.NumChunks(), a.CachedChunks())
	})

	t.Run("cached reads skip the store", func(t *testing.T) {
		store, dense := writeFixture(t, LZ4Codec{})
		a := openFixture(t, store)
		require.NoError(t, a.Preload(ctx))

		// deleting the blobs proves reads are served from the cache
		for i := 0; i < 2; i++ {
			for j := 0; j < 3; j++ {
				require.NoError(t, store.Delete(ctx, "arrays/fixture/"+chunkKey([]int{i, j})))
			}
		}

		got, err := a.Read(ctx, []AxisSel{SelAll(), SelAll()})
		require.NoError(t, err)
		assert.True(t, got.Equal(dense))
	})

	t.Run("capacity bounds residency", func(t *testing.T) {
		store, _ := writeFixture(t, LZ4Codec{})
		a := openFixture(t, store, WithCacheSize(2), WithParallelism(1))

		require.NoError(t, a.Preload(ctx))
		assert.Equal(t, 2, a.CachedChunks())
	})

	t.Run("missing chunk blob surfaces", func(t *testing.T) {
		store, _ := writeFixture(t, LZ4Codec{})
		require.NoError(t, store.Delete(ctx, "arrays/fixture/0.0"))
		a := openFixture(t, store)

		_, err := a.Read(ctx, []AxisSel{SelAll(), SelAll()})
		require.Error(t, err)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()
	store, dense := writeFixture(t, ZstdCodec{})
	a := NewAdapter(openFixture(t, store))

	t.Run("scalar axes collapse", func(t *testing.T) {
		got, err := a.Get(ctx, indexing.Key{indexing.At(2), indexing.At(-1)})
		require.NoError(t, err)
		assert.Equal(t, []int{}, got.Shape())

		v, err := got.Item()
		require.NoError(t, err)
		want, err := dense.At(2, 6)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	})

	t.Run("slice and array selection", func(t *testing.T) {
		got, err := a.Get(ctx, indexing.Key{
			indexing.NewSlice(1, 5, 2),
			indexing.Pick(6, 0, 3),
		})
		require.NoError(t, err)
		require.Equal(t, []int{2, 3}, got.Shape())

		for i, row := range []int{1, 3} {
			for j, col := range []int{6, 0, 3} {
				v, err := got.At(i, j)
				require.NoError(t, err)
				want, err := dense.At(row, col)
				require.NoError(t, err)
				assert.Equal(t, want, v)
			}
		}
	})

	t.Run("broadcast keys select the outer product", func(t *testing.T) {
		got, err := a.Get(ctx, indexing.BroadcastKey(indexing.Key{
			indexing.Pick(0, 2),
			indexing.Pick(1, 3),
		}))
		require.NoError(t, err)
		require.Equal(t, []int{2, 2}, got.Shape())

		for i, row := range []int{0, 2} {
			for j, col := range []int{1, 3} {
				v, err := got.At(i, j)
				require.NoError(t, err)
				want, err := dense.At(row, col)
				require.NoError(t, err)
				assert.Equal(t, want, v)
			}
		}
	})

	t.Run("lazy views compose arrays on two axes", func(t *testing.T) {
		lz, err := indexing.NewLazilyIndexed(a, nil)
		require.NoError(t, err)
		v, err := lz.Index(indexing.Key{indexing.Pick(0, 2, 5)})
		require.NoError(t, err)
		v, err = v.Index(indexing.Key{indexing.FullSlice(), indexing.Pick(1, 3)})
		require.NoError(t, err)

		got, err := v.Materialize(ctx)
		require.NoError(t, err)
		require.Equal(t, []int{3, 2}, got.Shape())

		for i, row := range []int{0, 2, 5} {
			for j, col := range []int{1, 3} {
				v, err := got.At(i, j)
				require.NoError(t, err)
				want, err := dense.At(row, col)
				require.NoError(t, err)
				assert.Equal(t, want, v)
			}
		}
	})

	t.Run("boolean mask", func(t *testing.T) {
		mask := make([]bool, 6)
		mask[0], mask[4] = true, true
		got, err := a.Get(ctx, indexing.Key{indexing.Mask(mask...)})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 7}, got.Shape())
	})

	t.Run("zipped keys are rejected", func(t *testing.T) {
		_, err := a.Get(ctx, indexing.Key{indexing.Pick(0, 1), indexing.Pick(2, 3)})
		require.Error(t, err)

		var noe *indexing.NotOrthogonalError
		assert.ErrorAs(t, err, &noe)
	})

	t.Run("writes always fail", func(t *testing.T) {
		err := a.Set(ctx, indexing.Key{indexing.At(0)}, nd.ScalarOf(int64(1)))
		require.Error(t, err)
		assert.ErrorIs(t, err, indexing.ErrReadOnly)
	})

	t.Run("materialize equals the dense source", func(t *testing.T) {
		got, err := a.Materialize(ctx)
		require.NoError(t, err)
		assert.True(t, got.Equal(dense))
	})
}

func TestMetadataValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("rank mismatch", func(t *testing.T) {
		arr, err := nd.FromInts([]int{1, 2, 3, 4}, 2, 2)
		require.NoError(t, err)
		err = Write(ctx, blobstore.NewMemory(), "x", arr, []int{2}, RawCodec{})
		assert.Error(t, err)
	})

	t.Run("non-positive chunk axis", func(t *testing.T) {
		arr, err := nd.FromInts([]int{1, 2}, 2)
		require.NoError(t, err)
		err = Write(ctx, blobstore.NewMemory(), "x", arr, []int{0}, RawCodec{})
		assert.Error(t, err)
	})

	t.Run("unsupported dtype", func(t *testing.T) {
		arr, err := nd.FromStrings([]string{"a"}, 1)
		require.NoError(t, err)
		err = Write(ctx, blobstore.NewMemory(), "x", arr, []int{1}, RawCodec{})
		assert.Error(t, err)
	})

	t.Run("corrupt metadata fails open", func(t *testing.T) {
		store := blobstore.NewMemory()
		require.NoError(t, store.Put(ctx, "x/"+MetaName, []byte("not json")))
		_, err := Open(ctx, store, "x")
		assert.Error(t, err)
	})

	t.Run("missing metadata maps to not found", func(t *testing.T) {
		_, err := Open(ctx, blobstore.NewMemory(), "absent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
