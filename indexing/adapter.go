package indexing

import (
	"context"

	"github.com/hupe1980/larray/nd"
)

// Indexable is the uniform, capability-tagged indexing surface over a storage
// backend. Get and Set interpret the key in the backend's declared native
// style; use ExplicitIndexingAdapter to feed raw keys to a backend.
//
// Materialize may block on I/O for file-backed adapters; everything else is
// synchronous and side-effect-free.
type Indexable interface {
	Shape() []int
	DType() nd.DType
	Capability() Capability
	Get(ctx context.Context, key Key) (*nd.Array, error)
	Set(ctx context.Context, key Key, value *nd.Array) error
	Materialize(ctx context.Context) (*nd.Array, error)
}

// LazyIndexer is an optional interface for adapters that can narrow to a new
// view without touching storage.
type LazyIndexer interface {
	IndexLazily(key Key) (Indexable, error)
}

// GetFunc performs a backend-native get for an already-converted key.
type GetFunc func(ctx context.Context, key Key) (*nd.Array, error)

// ExplicitIndexingAdapter is the seam external backends call into: it
// normalizes a raw key against shape, converts it to the strongest style the
// declared capability accepts, and hands the converted key to getFn.
func ExplicitIndexingAdapter(ctx context.Context, key Key, shape []int, c Capability, getFn GetFunc) (*nd.Array, error) {
	switch c {
	case Vectorized:
		ek, err := Expand(key, len(shape))
		if err != nil {
			return nil, err
		}
		return getFn(ctx, ek)
	case Outer, OuterOneVector:
		ek, err := Expand(key, len(shape))
		if err != nil {
			return nil, err
		}
		ub, err := Unbroadcast(ek, shape)
		if err != nil {
			return nil, err
		}
		ok, err := OrthogonalIndexer(ub, shape)
		if err != nil {
			return nil, err
		}
		if err := checkArrayAxes(ok, c); err != nil {
			return nil, err
		}
		return getFn(ctx, ok)
	default: // Basic
		ek, err := Expand(key, len(shape))
		if err != nil {
			return nil, err
		}
		if err := checkArrayAxes(ek, Basic); err != nil {
			return nil, err
		}
		return getFn(ctx, ek)
	}
}
