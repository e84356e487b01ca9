// Package nd implements dense, contiguous, row-major N-dimensional arrays.
//
// Arrays carry a closed element type (DType) over typed buffers. The package
// provides only the storage primitives the indexing layer needs: coordinate
// and flat access, gather/scatter, cloning and equality. Compute kernels are
// out of scope.
package nd
