// Package blobstore defines the storage capability that backed payloads are written to.
//
// A BlobStore writes a payload under a caller supplied key and answers with a self describing URI
// (scheme://bucket/key). Any process that understands the scheme can read the blob back from the URI
// alone, independent of the bucket it was configured with itself. Implementations live in the
// s3, minio, azure and gcs sub packages; MemoryStore is an in-process implementation.
//
// Implementations classify failures:
//   - *NotFoundError when the referenced object does not exist. Never retried.
//   - *StorageError for everything else, after the backend's own bounded retries are exhausted.
//   - *DeleteError from Delete, naming the keys that could not be removed.
package blobstore
