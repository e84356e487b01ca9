// Package blobstore abstracts random-access, read-oriented blob storage for
// array backends: local files, memory-mapped files, in-memory maps, and
// object stores (S3, MinIO) via subpackages.
//
// It also provides the lock-manager contract file-backed adapters thread
// through their reads: scoped acquisition Lockers, lock combination and the
// cross-process file lock.
package blobstore
