// Package diskarray implements a file-backed N-d array over a blobstore
// blob.
//
// The on-disk format is a fixed little-endian header (magic, dtype, rank,
// shape) followed by row-major element data. Reads take per-axis orthogonal
// selections, coalesce the innermost axis into contiguous runs and issue
// ranged reads, always under a caller-supplied lock. Writes are limited to
// basic keys against writable blobs.
package diskarray
