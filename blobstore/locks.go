package blobstore

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is the poll interval for contended file locks.
const lockRetryDelay = 25 * time.Millisecond

// Locker serializes access to a shared resource. Acquire blocks until the
// lock is held or ctx is done, and returns a release func.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// NoopLock is a Locker that never blocks. It is the lock for resources that
// need no serialization.
type NoopLock struct{}

func (NoopLock) Acquire(_ context.Context) (func(), error) {
	return func() {}, nil
}

// MutexLock is an in-process Locker. Unlike sync.Mutex it honors context
// cancellation while waiting.
type MutexLock struct {
	sem chan struct{}
}

// NewMutexLock creates an unlocked MutexLock.
func NewMutexLock() *MutexLock {
	return &MutexLock{sem: make(chan struct{}, 1)}
}

func (l *MutexLock) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FileLock is a cross-process Locker backed by an advisory file lock. Two
// processes reading the same array file coordinate through the same lock
// path.
type FileLock struct {
	fl *flock.Flock
}

// NewFileLock creates a FileLock at path. The lock file is created on first
// acquisition.
func NewFileLock(path string) *FileLock {
	return &FileLock{fl: flock.New(path)}
}

func (l *FileLock) Acquire(ctx context.Context) (func(), error) {
	ok, err := l.fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ctx.Err()
	}
	return func() { _ = l.fl.Unlock() }, nil
}

// combinedLock holds multiple locks for the duration of one acquisition.
type combinedLock struct {
	locks []Locker
}

func (l *combinedLock) Acquire(ctx context.Context) (func(), error) {
	releases := make([]func(), 0, len(l.locks))
	releaseAll := func() {
		// release in reverse acquisition order
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, lk := range l.locks {
		release, err := lk.Acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// CombineLocks merges locks into a single Locker. Nested combined locks are
// flattened, duplicates and no-ops are dropped, and the degenerate cases
// collapse: zero locks yield NoopLock, one lock is returned as-is.
func CombineLocks(locks ...Locker) Locker {
	var flat []Locker
	seen := make(map[Locker]struct{})
	var add func(l Locker)
	add = func(l Locker) {
		switch v := l.(type) {
		case nil:
			return
		case NoopLock:
			return
		case *combinedLock:
			for _, inner := range v.locks {
				add(inner)
			}
		default:
			if _, ok := seen[l]; ok {
				return
			}
			seen[l] = struct{}{}
			flat = append(flat, l)
		}
	}
	for _, l := range locks {
		add(l)
	}

	switch len(flat) {
	case 0:
		return NoopLock{}
	case 1:
		return flat[0]
	default:
		return &combinedLock{locks: flat}
	}
}

// EnsureLock substitutes NoopLock for a nil Locker so callers never have to
// nil-check.
func EnsureLock(l Locker) Locker {
	if l == nil {
		return NoopLock{}
	}
	return l
}

// LockIfNeeded returns l when locking is required and NoopLock otherwise.
func LockIfNeeded(l Locker, needsLock bool) Locker {
	if !needsLock {
		return NoopLock{}
	}
	return EnsureLock(l)
}
