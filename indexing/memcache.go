package indexing

import (
	"context"
	"sync"

	"github.com/hupe1980/larray/nd"
)

// MemoryCachedArray wraps any adapter and materializes it at most once. The
// first full materialization concretizes into an owned dense buffer; all
// later reads are served from the cache without re-invoking the base.
// Indexing before the first materialization stays lazy when the base supports
// it.
type MemoryCachedArray struct {
	mu     sync.Mutex
	base   Indexable
	cached *nd.Array
}

// NewMemoryCached wraps base.
func NewMemoryCached(base Indexable) *MemoryCachedArray {
	return &MemoryCachedArray{base: base}
}

func (a *MemoryCachedArray) snapshot() (Indexable, *nd.Array) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base, a.cached
}

func (a *MemoryCachedArray) Shape() []int {
	base, cached := a.snapshot()
	if cached != nil {
		return cached.Shape()
	}
	return base.Shape()
}

func (a *MemoryCachedArray) DType() nd.DType {
	base, cached := a.snapshot()
	if cached != nil {
		return cached.DType()
	}
	return base.DType()
}

func (a *MemoryCachedArray) Capability() Capability {
	base, cached := a.snapshot()
	if cached != nil {
		return Vectorized
	}
	return base.Capability()
}

// Materialize concretizes once and returns the cached array thereafter.
func (a *MemoryCachedArray) Materialize(ctx context.Context) (*nd.Array, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached == nil {
		arr, err := a.base.Materialize(ctx)
		if err != nil {
			return nil, err
		}
		a.cached = arr
		a.base = NewDenseAdapter(arr)
	}
	return a.cached, nil
}

// Get serves from the cache when present and delegates otherwise.
func (a *MemoryCachedArray) Get(ctx context.Context, key Key) (*nd.Array, error) {
	base, cached := a.snapshot()
	if cached != nil {
		return NewDenseAdapter(cached).Get(ctx, key)
	}
	return base.Get(ctx, key)
}

// Index narrows to a new cached wrapper. Before the first materialization the
// narrowing is delegated lazily to the base when possible; it never forces a
// full materialization early.
func (a *MemoryCachedArray) Index(ctx context.Context, key Key) (*MemoryCachedArray, error) {
	base, cached := a.snapshot()
	if cached != nil {
		res, err := NewDenseAdapter(cached).Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return NewMemoryCached(NewDenseAdapter(res)), nil
	}
	if li, ok := base.(LazyIndexer); ok {
		narrowed, err := li.IndexLazily(key)
		if err != nil {
			return nil, err
		}
		return NewMemoryCached(narrowed), nil
	}
	res, err := base.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return NewMemoryCached(NewDenseAdapter(res)), nil
}

// Set writes through to the underlying storage; a populated cache is updated
// in place so reads stay consistent, never invalidated.
func (a *MemoryCachedArray) Set(ctx context.Context, key Key, value *nd.Array) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.base.Set(ctx, key, value); err != nil {
		return err
	}
	return nil
}
