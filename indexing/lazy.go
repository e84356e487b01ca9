package indexing

import (
	"context"

	"github.com/hupe1980/larray/nd"
)

// LazilyIndexedArray accumulates composed index operations over a base array
// without touching its data. Each further indexing call folds the new key
// into the existing one via the composer; storage is read exactly once, at
// materialization.
//
// The base is always the innermost concrete adapter: wrapping a
// LazilyIndexedArray unwraps it and composes keys at construction time, so
// wrapper depth never grows with the number of indexing calls.
type LazilyIndexedArray struct {
	base Indexable
	key  Key // canonical per-axis indexers, one per base dimension
}

// NewLazilyIndexed wraps base under the given key. A nil key means the
// identity view. The key is interpreted per axis with outer semantics and is
// canonicalized immediately.
func NewLazilyIndexed(base Indexable, key Key) (*LazilyIndexedArray, error) {
	if lz, ok := base.(*LazilyIndexedArray); ok {
		if key == nil {
			return &LazilyIndexedArray{base: lz.base, key: lz.key.Clone()}, nil
		}
		return lz.Index(key)
	}
	ndim := len(base.Shape())
	if key == nil {
		key = make(Key, ndim)
		for i := range key {
			key[i] = FullSlice()
		}
		return &LazilyIndexedArray{base: base, key: key}, nil
	}
	ck, err := Canonicalize(key, ndim)
	if err != nil {
		return nil, err
	}
	return &LazilyIndexedArray{base: base, key: ck}, nil
}

// Key returns the composed key relative to the base array.
func (a *LazilyIndexedArray) Key() Key { return a.key.Clone() }

// Base returns the wrapped innermost adapter.
func (a *LazilyIndexedArray) Base() Indexable { return a.base }

// Shape is derived purely from the key; base data is never touched.
func (a *LazilyIndexedArray) Shape() []int {
	baseShape := a.base.Shape()
	out := make([]int, 0, len(a.key))
	for i, k := range a.key {
		switch k := k.(type) {
		case Slice:
			out = append(out, k.Len(baseShape[i]))
		case IntArray:
			out = append(out, len(k.Values))
		case BoolMask:
			out = append(out, len(k.nonzero().Values))
		}
	}
	return out
}

func (a *LazilyIndexedArray) DType() nd.DType { return a.base.DType() }

// Capability is Vectorized: broadcast-style keys are accepted and converted
// to the base's style internally.
func (a *LazilyIndexedArray) Capability() Capability { return Vectorized }

// Index folds key into the view and returns a new view over the same base.
// Broadcast-style keys are converted to outer form first; keys that zip axes
// have no lazy representation and fail with a NotOrthogonalError.
func (a *LazilyIndexedArray) Index(key Key) (*LazilyIndexedArray, error) {
	shape := a.Shape()
	ek, err := Expand(key, len(shape))
	if err != nil {
		return nil, err
	}
	ub, err := Unbroadcast(ek, shape)
	if err != nil {
		return nil, err
	}
	nk, err := ComposeKey(a.base.Shape(), a.key, ub)
	if err != nil {
		return nil, err
	}
	return &LazilyIndexedArray{base: a.base, key: nk}, nil
}

// IndexLazily implements LazyIndexer.
func (a *LazilyIndexedArray) IndexLazily(key Key) (Indexable, error) {
	return a.Index(key)
}

// Get composes key into the view and materializes the result.
func (a *LazilyIndexedArray) Get(ctx context.Context, key Key) (*nd.Array, error) {
	v, err := a.Index(key)
	if err != nil {
		return nil, err
	}
	return v.Materialize(ctx)
}

// Materialize canonicalizes the fully composed key and applies it against the
// base in a single call.
func (a *LazilyIndexedArray) Materialize(ctx context.Context) (*nd.Array, error) {
	key, err := a.baseKey()
	if err != nil {
		return nil, err
	}
	return a.base.Get(ctx, key)
}

// Set performs a single write-through of the composed key. The write happens
// eagerly; only reads are lazy.
func (a *LazilyIndexedArray) Set(ctx context.Context, key Key, value *nd.Array) error {
	v, err := a.Index(key)
	if err != nil {
		return err
	}
	bk, err := v.baseKey()
	if err != nil {
		return err
	}
	return v.base.Set(ctx, bk, value)
}

// baseKey converts the stored per-axis outer key into the base's native
// style. Vectorized bases receive an ix_-shaped broadcast key with interior
// slices materialized, so the zipped interpretation selects the outer
// product; weaker bases receive the orthogonal key directly.
func (a *LazilyIndexedArray) baseKey() (Key, error) {
	baseShape := a.base.Shape()
	if a.base.Capability() != Vectorized {
		ok, err := OrthogonalIndexer(a.key, baseShape)
		if err != nil {
			return nil, err
		}
		return ok, checkArrayAxes(ok, a.base.Capability())
	}
	ok, err := OrthogonalIndexer(a.key, baseShape)
	if err != nil {
		return nil, err
	}
	return BroadcastKey(ok), nil
}
