package hefty

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SnsClientWrapper struct {
	sns.Client
	serializer *Serializer
}

// NewSnsClientWrapper will create a new Hefty SNS client wrapper using an existing AWS SNS client.
// Messages are published through `serializer`.
func NewSnsClientWrapper(snsClient *sns.Client, serializer *Serializer) (*SnsClientWrapper, error) {
	if serializer == nil {
		return nil, &ConfigurationError{Field: "serializer", Reason: "is required"}
	}
	if serializer.cfg.MaxByteSize > maxQueueInlineBytes {
		return nil, &ConfigurationError{
			Field:  "max_byte_size",
			Reason: fmt.Sprintf("%d bytes do not fit a topic message once encoded, use at most %d", serializer.cfg.MaxByteSize, maxQueueInlineBytes),
		}
	}

	return &SnsClientWrapper{
		Client:     *snsClient,
		serializer: serializer,
	}, nil
}

// PublishHeftyMessage serializes the message with the topic name as topic, the same way
// SqsClientWrapper.SendHeftyMessage does. Subscriptions to the AWS SNS topic used in this method
// should use 'Raw Message Delivery' so that the hefty SQS client wrapper can read these messages.
// Other endpoints like AWS Lambda can use ReferenceURI to download backed messages directly.
//
// Note that this function's signature matches that of the AWS SNS SDK's Publish method.
func (client *SnsClientWrapper) PublishHeftyMessage(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	// input validation; if invalid input let AWS SDK handle it
	if params == nil ||
		params.Message == nil ||
		len(*params.Message) == 0 {

		return client.Publish(ctx, params, optFns...)
	}

	topicName, err := topicNameFromArn(params.TopicArn)
	if err != nil {
		return nil, err
	}

	wire, err := client.serializer.Serialize(ctx, topicName, UnassignedPartition, []byte(*params.Message))
	if err != nil {
		return nil, err
	}

	origMsg, origMsgAttr := params.Message, params.MessageAttributes

	attrs := make(map[string]snsTypes.MessageAttributeValue, len(origMsgAttr)+1)
	maps.Copy(attrs, origMsgAttr)
	attrs[HeftyClientVersionMessageAttributeKey] = snsTypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(HeftyClientVersion)}

	params.Message = aws.String(encodeQueueBody(wire))
	params.MessageAttributes = attrs

	// replace overwritten values with original values
	defer func() {
		params.Message = origMsg
		params.MessageAttributes = origMsgAttr
	}()

	return client.Publish(ctx, params, optFns...)
}

// Example topicArn: arn:aws:sns:us-west-2:765908583888:MyTopic
func topicNameFromArn(topicArn *string) (string, error) {
	const expectedTokenCount = 6

	if topicArn == nil {
		return "", errors.New("topicArn is nil")
	}

	tokens := strings.Split(*topicArn, ":")
	if len(tokens) != expectedTokenCount || tokens[5] == "" {
		return "", fmt.Errorf("expected %d tokens when splitting topicArn by ':' but received %d", expectedTokenCount, len(tokens))
	}

	return tokens[5], nil
}
