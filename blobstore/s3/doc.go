// Package s3 stores backed payloads in Amazon S3 using the AWS SDK for Go v2.
//
// References have the form s3://bucket/key. Writes go through the S3 upload manager with a
// conditional If-None-Match header so an existing key is never overwritten, and transient failures
// are retried by the SDK's standard retryer configured from a blobstore.RetryPolicy.
package s3
