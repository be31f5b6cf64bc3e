// Package blobstore provides the storage abstraction snapshots are written to.
//
// BlobStore reads and writes named, immutable blobs. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral snapshots
//   - LocalStore: files under a root directory, written atomically via rename
//   - minio.Store: MinIO and other S3-compatible services
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)           // Open for reading
//	    Create(ctx, name) (WritableBlob, error) // Create for writing
//	    Put(ctx, name, data) error              // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// A WritableBlob only becomes visible under its name when Close succeeds.
// Writers that also implement Aborter can discard a partial upload.
package blobstore
