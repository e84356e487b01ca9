// Package s3 implements blobstore.Store for Amazon S3.
//
// Blobs are served by ranged GetObject requests, so array backends can pull
// individual chunks without downloading whole objects. Request throughput can
// be bounded with a rate limiter.
package s3
