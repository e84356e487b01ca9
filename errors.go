package larray

import (
	"errors"
	"fmt"

	"github.com/hupe1980/larray/blobstore"
	"github.com/hupe1980/larray/indexing"
	"github.com/hupe1980/larray/labelindex"
)

var (
	// ErrNotFound is returned when a label or a stored blob is not found.
	ErrNotFound = errors.New("not found")

	// ErrIndex is returned for invalid positional keys: too many indices,
	// out-of-bounds positions, keys that cannot be orthogonalized.
	ErrIndex = indexing.ErrIndex

	// ErrInvalidIndexer is returned for malformed indexers.
	ErrInvalidIndexer = indexing.ErrInvalidIndexer

	// ErrReadOnly is returned when writing to a read-only backend.
	ErrReadOnly = indexing.ErrReadOnly

	// ErrIncompatibleValue is returned when a written value does not fit the
	// selection.
	ErrIncompatibleValue = indexing.ErrIncompatibleValue
)

// translateError unifies subpackage errors under the public sentinels. The
// original error stays reachable via errors.Unwrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, labelindex.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
