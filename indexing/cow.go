package indexing

import (
	"context"
	"sync"

	"github.com/hupe1980/larray/nd"
)

// CopyOnWriteArray shares a base array between any number of views until the
// first write, which copies the base into owned storage. Instances may share
// one base safely because none mutates it before its own copy trigger.
type CopyOnWriteArray struct {
	mu     sync.Mutex
	base   Indexable
	copied bool
}

// NewCopyOnWrite wraps base.
func NewCopyOnWrite(base Indexable) *CopyOnWriteArray {
	return &CopyOnWriteArray{base: base}
}

func (a *CopyOnWriteArray) current() Indexable {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base
}

func (a *CopyOnWriteArray) Shape() []int { return a.current().Shape() }

func (a *CopyOnWriteArray) DType() nd.DType { return a.current().DType() }

func (a *CopyOnWriteArray) Capability() Capability { return a.current().Capability() }

// Get delegates directly; reads never trigger a copy.
func (a *CopyOnWriteArray) Get(ctx context.Context, key Key) (*nd.Array, error) {
	return a.current().Get(ctx, key)
}

// Index narrows eagerly and returns a new copy-on-write wrapper over the
// result.
func (a *CopyOnWriteArray) Index(ctx context.Context, key Key) (*CopyOnWriteArray, error) {
	res, err := a.current().Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return NewCopyOnWrite(NewDenseAdapter(res)), nil
}

// Set copies the base into owned storage on the first write, then writes to
// the copy. The shared base is never mutated.
func (a *CopyOnWriteArray) Set(ctx context.Context, key Key, value *nd.Array) error {
	if err := a.ensureCopied(ctx); err != nil {
		return err
	}
	return a.current().Set(ctx, key, value)
}

func (a *CopyOnWriteArray) ensureCopied(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.copied {
		return nil
	}
	arr, err := a.base.Materialize(ctx)
	if err != nil {
		return err
	}
	a.base = NewDenseAdapter(arr.Clone())
	a.copied = true
	return nil
}

func (a *CopyOnWriteArray) Materialize(ctx context.Context) (*nd.Array, error) {
	return a.current().Materialize(ctx)
}
