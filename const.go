package hefty

import "github.com/vinujohn/hefty-blob/internal/keys"

const (
	DefaultMaxByteSize = 1_000_000 // payloads above this size are backed

	// UnassignedPartition is used when the caller only knows the topic of a record.
	UnassignedPartition = keys.UnassignedPartition

	MaxSqsSnsMessageLengthBytes           = 262_144                // 256KB
	HeftyClientVersionMessageAttributeKey = "hefty-client-version" // marks an SQS/SNS body holding base64 wire bytes
	HeftyClientVersion                    = "v1.0"
)
