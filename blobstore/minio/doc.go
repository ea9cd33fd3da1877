// Package minio provides a BlobStore for MinIO and other S3-compatible storage using the MinIO
// client.
//
// References use the s3 scheme, so records written through this store can be read by the aws
// backed store and the other way around.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "large-messages")
package minio
