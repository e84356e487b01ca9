// Package chunked implements a read-only N-d array split into a regular grid
// of compressed chunks stored in a blobstore.
//
// Each chunk is a fixed-shape block encoded by a codec (raw, LZ4, zstd) and
// stored under a coordinate key ("0.1.2"). Reads intersect per-axis
// selections with the chunk grid, fetch the needed chunks in parallel, and
// assemble the output. Decoded chunks are held in an LRU cache with a roaring
// bitmap tracking residency.
package chunked
