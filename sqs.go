package hefty

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// largest payload whose base64 wire bytes still fit an SQS/SNS message body
var maxQueueInlineBytes = base64.StdEncoding.DecodedLen(MaxSqsSnsMessageLengthBytes) - 1

type SqsClientWrapper struct {
	sqs.Client
	serializer   *Serializer
	deserializer *Deserializer
}

// NewSqsClientWrapper will create a new Hefty SQS client wrapper using an existing AWS SQS client.
// Message bodies are sent through `serializer` and read back through `deserializer`. The serializer's
// threshold must leave room for base64 encoding within MaxSqsSnsMessageLengthBytes.
func NewSqsClientWrapper(sqsClient *sqs.Client, serializer *Serializer, deserializer *Deserializer) (*SqsClientWrapper, error) {
	if err := checkQueueSerde(serializer, deserializer); err != nil {
		return nil, err
	}

	return &SqsClientWrapper{
		Client:       *sqsClient,
		serializer:   serializer,
		deserializer: deserializer,
	}, nil
}

func checkQueueSerde(serializer *Serializer, deserializer *Deserializer) error {
	if serializer == nil || deserializer == nil {
		return &ConfigurationError{Field: "serde", Reason: "serializer and deserializer are required"}
	}
	if serializer.cfg.MaxByteSize > maxQueueInlineBytes {
		return &ConfigurationError{
			Field:  "max_byte_size",
			Reason: fmt.Sprintf("%d bytes do not fit a queue message once encoded, use at most %d", serializer.cfg.MaxByteSize, maxQueueInlineBytes),
		}
	}
	return nil
}

// SendHeftyMessage serializes the message body with the queue name as topic. Bodies above the
// serializer's threshold are written to the blob store and a reference is sent instead. The wire bytes
// are base64 encoded and the message is marked with the HeftyClientVersionMessageAttributeKey attribute.
//
// Note that this function's signature matches that of the AWS SQS SDK's SendMessage function.
func (client *SqsClientWrapper) SendHeftyMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	// input validation; if invalid input let AWS SDK handle it
	if params == nil ||
		params.MessageBody == nil ||
		len(*params.MessageBody) == 0 {

		return client.SendMessage(ctx, params, optFns...)
	}

	queueName, err := queueNameFromUrl(params.QueueUrl)
	if err != nil {
		return nil, err
	}

	origBody, origMsgAttr := params.MessageBody, params.MessageAttributes
	body, msgAttr, err := client.encode(ctx, queueName, *origBody, origMsgAttr)
	if err != nil {
		return nil, err
	}

	params.MessageBody = aws.String(body)
	params.MessageAttributes = msgAttr

	// replace overwritten values with original values
	defer func() {
		params.MessageBody = origBody
		params.MessageAttributes = origMsgAttr
	}()

	out, err := client.SendMessage(ctx, params, optFns...)
	if err != nil {
		return out, err
	}

	// overwrite md5 value with the digest of the original body
	out.MD5OfMessageBody = aws.String(md5Digest([]byte(*origBody)))

	return out, nil
}

// SendHeftyMessageBatch applies SendHeftyMessage's encoding to every entry of the batch.
func (client *SqsClientWrapper) SendHeftyMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	if params == nil || len(params.Entries) == 0 {
		return client.SendMessageBatch(ctx, params, optFns...)
	}

	queueName, err := queueNameFromUrl(params.QueueUrl)
	if err != nil {
		return nil, err
	}

	origEntries := params.Entries
	entries := make([]types.SendMessageBatchRequestEntry, len(origEntries))
	for i, entry := range origEntries {
		entries[i] = entry
		if entry.MessageBody == nil || len(*entry.MessageBody) == 0 {
			continue
		}

		body, msgAttr, err := client.encode(ctx, queueName, *entry.MessageBody, entry.MessageAttributes)
		if err != nil {
			return nil, fmt.Errorf("unable to encode batch entry %s. %w", aws.ToString(entry.Id), err)
		}
		entries[i].MessageBody = aws.String(body)
		entries[i].MessageAttributes = msgAttr
	}

	params.Entries = entries
	defer func() {
		params.Entries = origEntries
	}()

	return client.SendMessageBatch(ctx, params, optFns...)
}

func (client *SqsClientWrapper) encode(ctx context.Context, queueName, body string, msgAttr map[string]types.MessageAttributeValue) (string, map[string]types.MessageAttributeValue, error) {
	wire, err := client.serializer.Serialize(ctx, queueName, UnassignedPartition, []byte(body))
	if err != nil {
		return "", nil, err
	}

	attrs := make(map[string]types.MessageAttributeValue, len(msgAttr)+1)
	maps.Copy(attrs, msgAttr)
	attrs[HeftyClientVersionMessageAttributeKey] = types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(HeftyClientVersion),
	}

	return encodeQueueBody(wire), attrs, nil
}

// ReceiveHeftyMessage will determine if a message received was sent with `SendHeftyMessage` and replace its
// body with the original one, downloading it from the blob store when the message holds a reference.
// Messages without the HeftyClientVersionMessageAttributeKey attribute are returned unchanged.
//
// Note that this function's signature matches that of the AWS SQS SDK's ReceiveMessage function.
func (client *SqsClientWrapper) ReceiveHeftyMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if params == nil {
		return client.ReceiveMessage(ctx, params, optFns...)
	}

	// the marker attribute has to be requested to be returned
	origNames := params.MessageAttributeNames
	if !slices.Contains(origNames, HeftyClientVersionMessageAttributeKey) && !slices.Contains(origNames, "All") {
		params.MessageAttributeNames = append(slices.Clone(origNames), HeftyClientVersionMessageAttributeKey)
		defer func() {
			params.MessageAttributeNames = origNames
		}()
	}

	out, err := client.ReceiveMessage(ctx, params, optFns...)
	if err != nil || out == nil {
		return out, err
	}

	queueName, _ := queueNameFromUrl(params.QueueUrl)

	for i := range out.Messages {
		msg := &out.Messages[i]
		if _, ok := msg.MessageAttributes[HeftyClientVersionMessageAttributeKey]; !ok || msg.Body == nil {
			continue
		}

		payload, err := decodeQueueBody(ctx, client.deserializer, queueName, *msg.Body)
		if err != nil {
			return nil, fmt.Errorf("unable to decode message %s. %w", aws.ToString(msg.MessageId), err)
		}

		msg.Body = aws.String(string(payload))
		msg.MD5OfBody = aws.String(md5Digest(payload))
		delete(msg.MessageAttributes, HeftyClientVersionMessageAttributeKey)
	}

	return out, nil
}

func encodeQueueBody(wire []byte) string {
	return base64.StdEncoding.EncodeToString(wire)
}

func decodeQueueBody(ctx context.Context, deserializer *Deserializer, topic, body string) ([]byte, error) {
	wire, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, &CodecError{Reason: fmt.Sprintf("body is not base64. %v", err)}
	}

	return deserializer.Deserialize(ctx, topic, wire)
}

// Example queueUrl: https://sqs.us-west-2.amazonaws.com/765908583888/MyTestQueue
func queueNameFromUrl(queueUrl *string) (string, error) {
	const expectedTokenCount = 5

	if queueUrl == nil {
		return "", errors.New("queueUrl is nil")
	}

	tokens := strings.Split(*queueUrl, "/")
	if len(tokens) != expectedTokenCount || tokens[4] == "" {
		return "", fmt.Errorf("expected %d tokens when splitting queueUrl by '/' but received %d", expectedTokenCount, len(tokens))
	}

	return tokens[4], nil
}

func md5Digest(buf []byte) string {
	hash := md5.Sum(buf)
	return hex.EncodeToString(hash[:])
}
