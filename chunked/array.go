package chunked

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/indexing"
	"github.com/hupe1980/larray/internal/binenc"
	"github.com/hupe1980/larray/nd"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// AxisSel is a per-axis selection: either a slice or explicit positions.
type AxisSel struct {
	IsSlice   bool
	Slice     indexing.Slice
	Positions []int
}

// SelSlice selects a slice along one axis. Open bounds use indexing.None.
func SelSlice(start, stop, step int) AxisSel {
	return AxisSel{IsSlice: true, Slice: indexing.NewSlice(start, stop, step)}
}

// SelAll selects every position along one axis.
func SelAll() AxisSel {
	return AxisSel{IsSlice: true, Slice: indexing.FullSlice()}
}

// SelPositions selects explicit positions along one axis. Negative positions
// count from the end.
func SelPositions(positions ...int) AxisSel {
	return AxisSel{Positions: positions}
}

// ArrayOption configures an Array.
type ArrayOption func(*Array)

// WithCacheSize sets the decoded-chunk LRU capacity. Default 64.
func WithCacheSize(n int) ArrayOption {
	return func(a *Array) { a.cacheSize = n }
}

// WithParallelism bounds concurrent chunk fetches. Default GOMAXPROCS.
func WithParallelism(n int) ArrayOption {
	return func(a *Array) { a.parallelism = n }
}

// Array is a read-only N-d array stored as a grid of compressed chunks.
type Array struct {
	store blobstore.Store
	name  string
	meta  *Metadata
	dtype nd.DType
	codec Codec
	grid  []int
	cache *chunkCache

	cacheSize   int
	parallelism int
}

// Open reads array metadata from store under the given name prefix.
func Open(ctx context.Context, store blobstore.Store, name string, optFns ...ArrayOption) (*Array, error) {
	meta, err := readMetadata(ctx, store, name)
	if err != nil {
		return nil, err
	}
	dt, err := dtypeOf(meta.DType)
	if err != nil {
		return nil, err
	}
	codec, err := codecOf(meta.Codec)
	if err != nil {
		return nil, err
	}

	a := &Array{
		store:       store,
		name:        name,
		meta:        meta,
		dtype:       dt,
		codec:       codec,
		grid:        gridShape(meta.Shape, meta.ChunkShape),
		cacheSize:   64,
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		fn(a)
	}
	if a.parallelism < 1 {
		a.parallelism = 1
	}

	a.cache, err = newChunkCache(a.cacheSize, a.grid)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Write stores arr as a chunked array under the given name prefix. Edge
// chunks are padded to the full chunk shape.
func Write(ctx context.Context, store blobstore.Putter, name string, arr *nd.Array, chunkShape []int, codec Codec) error {
	dtName, err := dtypeName(arr.DType())
	if err != nil {
		return err
	}
	meta := &Metadata{
		FormatVersion: FormatVersion,
		Shape:         arr.Shape(),
		ChunkShape:    chunkShape,
		DType:         dtName,
		Codec:         codec.Name(),
	}
	if err := meta.validate(); err != nil {
		return err
	}
	if err := writeMetadata(ctx, store, name, meta); err != nil {
		return err
	}

	grid := gridShape(meta.Shape, chunkShape)
	coords := make([]int, len(grid))
	for {
		chunk, err := cutChunk(arr, coords, chunkShape)
		if err != nil {
			return err
		}
		raw, err := binenc.EncodeArray(chunk)
		if err != nil {
			return err
		}
		block, err := codec.Encode(raw)
		if err != nil {
			return err
		}
		if err := store.Put(ctx, name+"/"+chunkKey(coords), block); err != nil {
			return err
		}

		d := len(coords) - 1
		for d >= 0 {
			coords[d]++
			if coords[d] < grid[d] {
				break
			}
			coords[d] = 0
			d--
		}
		if d < 0 {
			return nil
		}
	}
}

// cutChunk copies the chunk at coords out of arr, zero-padded at the edges.
func cutChunk(arr *nd.Array, coords, chunkShape []int) (*nd.Array, error) {
	out := nd.Zeros(arr.DType(), chunkShape...)
	shape := arr.Shape()

	// extent of real data within this chunk
	extent := make([]int, len(coords))
	for d := range coords {
		extent[d] = chunkShape[d]
		if rest := shape[d] - coords[d]*chunkShape[d]; rest < extent[d] {
			extent[d] = rest
		}
		if extent[d] <= 0 {
			return out, nil
		}
	}

	src := make([]int, len(coords))
	dst := make([]int, len(coords))
	for {
		for d := range src {
			src[d] = coords[d]*chunkShape[d] + dst[d]
		}
		v, err := arr.At(src...)
		if err != nil {
			return nil, err
		}
		if err := out.SetAt(v, dst...); err != nil {
			return nil, err
		}

		d := len(dst) - 1
		for d >= 0 {
			dst[d]++
			if dst[d] < extent[d] {
				break
			}
			dst[d] = 0
			d--
		}
		if d < 0 {
			return out, nil
		}
	}
}

// Shape returns the logical array shape.
func (a *Array) Shape() []int {
	out := make([]int, len(a.meta.Shape))
	copy(out, a.meta.Shape)
	return out
}

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.meta.Shape) }

// DType returns the element type.
func (a *Array) DType() nd.DType { return a.dtype }

// ChunkShape returns the shape of every chunk.
func (a *Array) ChunkShape() []int {
	out := make([]int, len(a.meta.ChunkShape))
	copy(out, a.meta.ChunkShape)
	return out
}

// Grid returns the number of chunks along each axis.
func (a *Array) Grid() []int {
	out := make([]int, len(a.grid))
	copy(out, a.grid)
	return out
}

// Read assembles the selection described by one AxisSel per axis, fetching
// the touched chunks in parallel.
func (a *Array) Read(ctx context.Context, sels []AxisSel) (*nd.Array, error) {
	if len(sels) != a.NDim() {
		return nil, &indexing.InvalidIndexerError{
			Reason: fmt.Sprintf("got %d axis selections for a %d-d array", len(sels), a.NDim()),
		}
	}

	perAxisPos := make([][]int, a.NDim())
	outShape := make([]int, a.NDim())
	for d, sel := range sels {
		pos, err := sel.positions(a.meta.Shape[d], d)
		if err != nil {
			return nil, err
		}
		perAxisPos[d] = pos
		outShape[d] = len(pos)
	}

	out := nd.Zeros(a.dtype, outShape...)
	if out.Size() == 0 {
		return out, nil
	}

	perAxis := make([][]dimProjection, a.NDim())
	for d, pos := range perAxisPos {
		perAxis[d] = projectAxis(pos, a.meta.ChunkShape[d])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for _, cp := range projectChunks(perAxis) {
		cp := cp
		g.Go(func() error {
			chunk, err := a.chunk(gctx, cp.coords)
			if err != nil {
				return err
			}
			// each projection writes a disjoint set of output elements
			return scatterChunk(out, chunk, cp)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (sel AxisSel) positions(size, axis int) ([]int, error) {
	if sel.IsSlice {
		return indexing.ExpandSlice(sel.Slice, size), nil
	}
	out := make([]int, len(sel.Positions))
	for i, p := range sel.Positions {
		q := p
		if q < 0 {
			q += size
		}
		if q < 0 || q >= size {
			return nil, &indexing.OutOfBoundsError{Index: p, Size: size, Axis: axis}
		}
		out[i] = q
	}
	return out, nil
}

// scatterChunk copies the projected elements of one decoded chunk into the
// output array.
func scatterChunk(out, chunk *nd.Array, cp chunkProjection) error {
	ndim := len(cp.coords)
	outStrides := nd.Strides(out.Shape())
	chunkStrides := nd.Strides(chunk.Shape())

	pick := make([]int, ndim)
	for {
		flatOut, flatChunk := 0, 0
		for d := 0; d < ndim; d++ {
			flatOut += cp.outSel[d][pick[d]] * outStrides[d]
			flatChunk += cp.chunkSel[d][pick[d]] * chunkStrides[d]
		}
		v, err := chunk.FlatAt(flatChunk)
		if err != nil {
			return err
		}
		if err := out.SetFlatAt(flatOut, v); err != nil {
			return err
		}

		d := ndim - 1
		for d >= 0 {
			pick[d]++
			if pick[d] < len(cp.outSel[d]) {
				break
			}
			pick[d] = 0
			d--
		}
		if d < 0 {
			return nil
		}
	}
}

// chunk returns the decoded chunk at coords, fetching and caching on miss.
func (a *Array) chunk(ctx context.Context, coords []int) (*nd.Array, error) {
	if chunk, ok := a.cache.get(coords); ok {
		return chunk, nil
	}

	blob, err := a.store.Open(ctx, a.name+"/"+chunkKey(coords))
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	block, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}
	raw, err := a.codec.Decode(block)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", chunkKey(coords), err)
	}
	chunk, err := binenc.DecodeArray(raw, a.dtype, a.meta.ChunkShape)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", chunkKey(coords), err)
	}

	a.cache.add(coords, chunk)
	return chunk, nil
}

// Preload warms the chunk cache with every chunk of the array, at most
// parallelism fetches in flight.
func (a *Array) Preload(ctx context.Context) error {
	if a.NumChunks() == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(a.parallelism))
	g, gctx := errgroup.WithContext(ctx)

	coords := make([]int, len(a.grid))
	for {
		c := make([]int, len(coords))
		copy(c, coords)
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			_, err := a.chunk(gctx, c)
			return err
		})

		d := len(coords) - 1
		for d >= 0 {
			coords[d]++
			if coords[d] < a.grid[d] {
				break
			}
			coords[d] = 0
			d--
		}
		if d < 0 {
			break
		}
	}
	return g.Wait()
}

// NumChunks returns the total number of chunks in the grid.
func (a *Array) NumChunks() int {
	n := 1
	for _, g := range a.grid {
		n *= g
	}
	return n
}

// CachedChunks returns the number of chunks currently resident in the cache.
func (a *Array) CachedChunks() int { return a.cache.len() }
