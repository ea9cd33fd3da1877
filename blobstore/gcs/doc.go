// Package gcs provides a BlobStore for Google Cloud Storage. References have the form
// gs://bucket/key.
package gcs
