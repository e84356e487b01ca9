// Package labelindex implements 1-D label-to-position lookup for labeled
// array dimensions.
//
// An Index maps labels (floats, integers, strings, timestamps, or opaque
// values) to integer positions. The indexing core consumes only the
// positional output: GetLoc, GetIndexer, SliceIndexer and Isin all translate
// labels into positions that ordinary position-based keys are built from.
package labelindex
