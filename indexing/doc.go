// Package indexing translates multi-dimensional index requests into primitive
// operations on heterogeneous storage backends.
//
// A raw key (scalars, slices, integer arrays, boolean masks, possibly with an
// Ellipsis or fewer entries than the array has dimensions) is first expanded
// to one canonical indexer per dimension. Depending on the capability a
// backend declares (Basic, OuterOneVector, Outer or Vectorized), the key is
// then converted to an outer/orthogonal form or kept in broadcast form before
// it reaches the backend.
//
// Indexing never touches storage until materialization: LazilyIndexedArray
// folds repeated index operations into a single equivalent key via the
// composer, so wrapper depth stays bounded and data is read exactly once.
package indexing
