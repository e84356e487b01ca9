// Package minio implements blobstore.Store for MinIO and other S3-compatible
// object stores, using ranged reads so array backends can fetch individual
// chunks.
package minio
