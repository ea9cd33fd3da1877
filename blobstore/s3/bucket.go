package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// bucketExists checks whether a bucket exists and is accessible with the client's credentials.
// A bucket of another account may only grant object access, so a forbidden HeadBucket is followed
// by a one key listing.
func bucketExists(ctx context.Context, client Client, bucketName string) (bool, error) {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})

	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) {
			switch apiError.(type) {
			case *types.NotFound:
				return false, nil
			}
			if isForbidden(apiError) {
				return bucketListable(ctx, client, bucketName)
			}
			return false, fmt.Errorf("unable to check if bucket exists. %v", apiError)
		}
		return false, fmt.Errorf("unable to check if bucket exists. %w", err)
	}
	return true, nil
}

func bucketListable(ctx context.Context, client Client, bucketName string) (bool, error) {
	_, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucketName),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		var noSuchBucket *types.NoSuchBucket
		if errors.As(err, &noSuchBucket) {
			return false, nil
		}
		return false, fmt.Errorf("unable to check if bucket exists. %v", err)
	}
	return true, nil
}

func isForbidden(apiError smithy.APIError) bool {
	switch apiError.ErrorCode() {
	case "Forbidden", "AccessDenied":
		return true
	}
	return false
}
