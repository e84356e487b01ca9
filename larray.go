// Package larray provides lazy indexing over labeled N-dimensional arrays.
//
// An Array wraps a backend — an in-memory dense array, a chunked compressed
// store, a file-backed array or a 1-D label index — behind a single indexing
// surface with production-ready features including:
//
//   - NumPy-style keys: slices with negative steps and open bounds, scalars,
//     integer arrays, boolean masks and Ellipsis
//   - Lazy composition: repeated indexing folds keys together; data is read
//     only on Load
//   - Backend capability negotiation: vectorized keys are converted to the
//     strongest form each backend supports, or fail loudly
//   - Copy-on-write and memory-cache wrappers for cheap sharing
//   - Chunked storage with LZ4/zstd codecs, parallel chunk assembly and an
//     LRU chunk cache
//   - Blob storage over local files, mmap, S3 and MinIO
//
// # Quick Start
//
// Index a dense array lazily and load the result:
//
//	ctx := context.Background()
//	arr := larray.New(data) // data is an *nd.Array
//	sub, err := arr.Index(ctx, indexing.At(0), indexing.All())
//	if err != nil {
//	    panic(err)
//	}
//	out, err := sub.Load(ctx)
//
// Open a chunked array stored in a blobstore:
//
//	store := blobstore.NewLocal("/data/arrays")
//	arr, err := larray.OpenChunked(ctx, store, "temperature")
//
// Wrap any backend with caching and copy-on-write:
//
//	arr := larray.New(data,
//	    larray.WithMemoryCache(),
//	    larray.WithCopyOnWrite(),
//	    larray.WithLogLevel(slog.LevelDebug),
//	)
package larray

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/chunked"
	"github.com/hupe1980/larray/diskarray"
	"github.com/hupe1980/larray/indexing"
	"github.com/hupe1980/larray/labelindex"
	"github.com/hupe1980/larray/nd"
)

// Array is a lazily-indexed handle over an indexing backend.
type Array struct {
	base    indexing.Indexable
	logger  *Logger
	metrics MetricsCollector
}

// New wraps a dense in-memory array.
func New(arr *nd.Array, optFns ...Option) *Array {
	return Wrap(indexing.NewDenseAdapter(arr), optFns...)
}

// Wrap builds an Array over any backend.
func Wrap(base indexing.Indexable, optFns ...Option) *Array {
	o := applyOptions(optFns)
	if o.copyOnWrite {
		base = indexing.NewCopyOnWrite(base)
	}
	if o.memoryCache {
		base = indexing.NewMemoryCached(base)
	}
	return &Array{
		base:    base,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
}

// FromIndex wraps a 1-D label index.
func FromIndex(ix *labelindex.Index, optFns ...Option) *Array {
	return Wrap(indexing.NewLabelIndexAdapter(ix), optFns...)
}

// OpenChunked opens a chunked array stored under name in store.
func OpenChunked(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*Array, error) {
	arr, err := chunked.Open(ctx, store, name)
	if err != nil {
		return nil, translateError(err)
	}
	return Wrap(chunked.NewAdapter(arr), optFns...), nil
}

// OpenFile opens a file-backed array stored under name in store. The lock
// configured with WithFileLock is held during all blob access.
func OpenFile(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*Array, error) {
	o := applyOptions(optFns)
	arr, err := diskarray.Open(ctx, store, name, diskarray.WithLock(o.fileLock))
	if err != nil {
		return nil, translateError(err)
	}
	return Wrap(diskarray.NewAdapter(arr), optFns...), nil
}

// Base returns the wrapped backend.
func (a *Array) Base() indexing.Indexable { return a.base }

// Shape returns the logical shape after all composed keys.
func (a *Array) Shape() []int { return a.base.Shape() }

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.base.Shape()) }

// Size returns the number of elements.
func (a *Array) Size() int { return nd.ShapeSize(a.base.Shape()) }

// DType returns the element type.
func (a *Array) DType() nd.DType { return a.base.DType() }

func (a *Array) child(base indexing.Indexable) *Array {
	return &Array{base: base, logger: a.logger, metrics: a.metrics}
}

// Index narrows the array with a positional key without reading data. The
// result stays lazy: keys compose until Load.
//
// Keys whose arrays index multiple axes in lockstep (zipped keys) have no
// lazy per-axis form; for those the backend is materialized once and the key
// applied in memory.
func (a *Array) Index(ctx context.Context, key ...indexing.Indexer) (*Array, error) {
	base, err := a.lazyIndex(indexing.Key(key))
	if err != nil {
		var noe *indexing.NotOrthogonalError
		if errors.As(err, &noe) {
			return a.zipIndex(ctx, indexing.Key(key))
		}
		a.metrics.RecordIndex(err)
		a.logger.LogIndex(ctx, indexing.Key(key).String(), nil, err)
		return nil, translateError(err)
	}

	a.metrics.RecordIndex(nil)
	a.logger.LogIndex(ctx, indexing.Key(key).String(), base.Shape(), nil)
	return a.child(base), nil
}

func (a *Array) lazyIndex(key indexing.Key) (indexing.Indexable, error) {
	if li, ok := a.base.(indexing.LazyIndexer); ok {
		return li.IndexLazily(key)
	}
	lz, err := indexing.NewLazilyIndexed(a.base, nil)
	if err != nil {
		return nil, err
	}
	return lz.IndexLazily(key)
}

// zipIndex materializes the backend and applies a zipped vectorized key in
// memory.
func (a *Array) zipIndex(ctx context.Context, key indexing.Key) (*Array, error) {
	arr, err := a.base.Materialize(ctx)
	if err == nil {
		var res *nd.Array
		res, err = indexing.NewDenseAdapter(arr).Get(ctx, key)
		if err == nil {
			a.metrics.RecordIndex(nil)
			a.logger.LogIndex(ctx, key.String(), res.Shape(), nil)
			return a.child(indexing.NewDenseAdapter(res)), nil
		}
	}
	a.metrics.RecordIndex(err)
	a.logger.LogIndex(ctx, key.String(), nil, err)
	return nil, translateError(err)
}

// Load materializes the array into memory, applying all composed keys in a
// single backend read.
func (a *Array) Load(ctx context.Context) (*nd.Array, error) {
	start := time.Now()
	arr, err := a.base.Materialize(ctx)

	elements := 0
	if arr != nil {
		elements = arr.Size()
	}
	a.metrics.RecordLoad(elements, time.Since(start), err)
	a.logger.LogLoad(ctx, elements, time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}
	return arr, nil
}

// Get reads the selection described by key eagerly.
func (a *Array) Get(ctx context.Context, key ...indexing.Indexer) (*nd.Array, error) {
	start := time.Now()
	arr, err := a.base.Get(ctx, indexing.Key(key))

	elements := 0
	if arr != nil {
		elements = arr.Size()
	}
	a.metrics.RecordLoad(elements, time.Since(start), err)
	a.logger.LogLoad(ctx, elements, time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}
	return arr, nil
}

// Set writes value into the selection described by key.
func (a *Array) Set(ctx context.Context, key indexing.Key, value *nd.Array) error {
	start := time.Now()
	err := a.base.Set(ctx, key, value)

	a.metrics.RecordSet(time.Since(start), err)
	a.logger.LogSet(ctx, key.String(), value.Size(), err)
	return translateError(err)
}
