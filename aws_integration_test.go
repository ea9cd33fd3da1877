package hefty_test

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	hefty "github.com/vinujohn/hefty-blob"
	s3blob "github.com/vinujohn/hefty-blob/blobstore/s3"
	"github.com/vinujohn/hefty-blob/internal/testutils"
)

// integrationEnv enables the suite below. It needs AWS credentials allowed to manage S3, SQS and SNS.
const integrationEnv = "HEFTY_AWS_INTEGRATION"

var _ = Describe("AWS client wrappers", Ordered, func() {
	const maxByteSize = 128 * 1024

	var (
		ctx            context.Context
		heftySqsClient *hefty.SqsClientWrapper
		heftySnsClient *hefty.SnsClientWrapper
		s3Client       *s3.Client
		cleaner        *hefty.Cleaner

		testBucket string
		testQueues []*string
		testTopics []*string
	)

	BeforeAll(func() {
		if os.Getenv(integrationEnv) == "" {
			Skip(fmt.Sprintf("set %s to run against AWS", integrationEnv))
		}
		ctx = context.Background()

		sdkConfig, err := config.LoadDefaultConfig(ctx)
		Expect(err).To(BeNil())

		// create s3 bucket
		s3Client = s3.NewFromConfig(sdkConfig)
		testBucket = uuid.NewString()
		input := &s3.CreateBucketInput{Bucket: &testBucket}
		if sdkConfig.Region != "us-east-1" {
			input.CreateBucketConfiguration = &s3Types.CreateBucketConfiguration{
				LocationConstraint: s3Types.BucketLocationConstraint(sdkConfig.Region),
			}
		}
		_, err = s3Client.CreateBucket(ctx, input)
		Expect(err).To(BeNil())

		cfg := hefty.Config{MaxByteSize: maxByteSize, BasePath: "it", Backend: hefty.BackendS3}
		store := s3blob.NewStore(s3Client, testBucket)

		serializer, err := hefty.NewSerializerWithStore(cfg, store)
		Expect(err).To(BeNil())
		deserializer, err := hefty.NewDeserializer(cfg, hefty.WithStore(store))
		Expect(err).To(BeNil())
		cleaner, err = hefty.NewCleaner(ctx, cfg, store)
		Expect(err).To(BeNil())

		heftySqsClient, err = hefty.NewSqsClientWrapper(sqs.NewFromConfig(sdkConfig), serializer, deserializer)
		Expect(err).To(BeNil())
		heftySnsClient, err = hefty.NewSnsClientWrapper(sns.NewFromConfig(sdkConfig), serializer)
		Expect(err).To(BeNil())
	})

	AfterAll(func() {
		if heftySqsClient == nil {
			return
		}

		for _, q := range testQueues {
			_, err := heftySqsClient.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: q})
			Expect(err).To(BeNil())
		}
		for _, t := range testTopics {
			_, err := heftySnsClient.DeleteTopic(ctx, &sns.DeleteTopicInput{TopicArn: t})
			Expect(err).To(BeNil())
		}

		// every blob written by the suite lives under a queue or topic name
		names := append(testQueues, testTopics...)
		for _, name := range names {
			_, err := cleaner.DeleteTopic(ctx, lastToken(*name))
			Expect(err).To(BeNil())
		}

		_, err := s3Client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: &testBucket})
		Expect(err).To(BeNil())
	})

	CreateSqsQueue := func() *string {
		GinkgoHelper()
		queueName := uuid.NewString()
		q, err := heftySqsClient.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: &queueName})
		Expect(err).To(BeNil())
		testQueues = append(testQueues, q.QueueUrl) // for cleanup later

		return q.QueueUrl
	}

	ReceiveSqsMessage := func(queueUrl *string, requestedAttrNames []string) *sqs.ReceiveMessageOutput {
		GinkgoHelper()
		res, err := heftySqsClient.ReceiveHeftyMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              queueUrl,
			WaitTimeSeconds:       20,
			MessageAttributeNames: requestedAttrNames,
		})
		Expect(err).To(BeNil())
		Expect(res.Messages).NotTo(BeEmpty())

		_, err = heftySqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      queueUrl,
			ReceiptHandle: res.Messages[0].ReceiptHandle,
		})
		Expect(err).To(BeNil())

		return res
	}

	DescribeTable("sending a message to AWS SQS",
		func(bodySize int) {
			queueUrl := CreateSqsQueue()
			body := testutils.CreateText(bodySize)
			attrs := map[string]sqsTypes.MessageAttributeValue{
				"test01": {DataType: aws.String("String"), StringValue: aws.String("value")},
			}
			input := &sqs.SendMessageInput{QueueUrl: queueUrl, MessageBody: &body, MessageAttributes: attrs}

			_, err := heftySqsClient.SendHeftyMessage(ctx, input)
			Expect(err).To(BeNil())

			// the input is restored after sending
			Expect(*input.MessageBody).To(Equal(body))
			Expect(input.MessageAttributes).To(Equal(attrs))

			res := ReceiveSqsMessage(queueUrl, []string{"test01"})
			Expect(*res.Messages[0].Body).To(Equal(body))
			Expect(res.Messages[0].MessageAttributes).To(HaveKey("test01"))
			Expect(res.Messages[0].MessageAttributes).NotTo(HaveKey(hefty.HeftyClientVersionMessageAttributeKey))
		},
		Entry("inline", 1024),
		Entry("at the threshold", maxByteSize),
		Entry("over the AWS SQS size limit", 2*hefty.MaxSqsSnsMessageLengthBytes),
	)

	It("publishes a message through AWS SNS with raw delivery to a queue", func() {
		queueUrl := CreateSqsQueue()

		t, err := heftySnsClient.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(uuid.NewString())})
		Expect(err).To(BeNil())
		testTopics = append(testTopics, t.TopicArn)

		qAttr, err := heftySqsClient.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
			QueueUrl:       queueUrl,
			AttributeNames: []sqsTypes.QueueAttributeName{"QueueArn"},
		})
		Expect(err).To(BeNil())
		qArn := qAttr.Attributes["QueueArn"]

		_, err = heftySnsClient.Subscribe(ctx, &sns.SubscribeInput{
			Protocol:   aws.String("sqs"),
			TopicArn:   t.TopicArn,
			Attributes: map[string]string{"RawMessageDelivery": "true"},
			Endpoint:   aws.String(qArn),
		})
		Expect(err).To(BeNil())

		// add permission to queue so that sns can send messages to it
		_, err = heftySqsClient.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
			QueueUrl: queueUrl,
			Attributes: map[string]string{
				"Policy": fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"sns.amazonaws.com"},"Action":"sqs:SendMessage","Resource":"%s","Condition":{"ArnEquals":{"aws:SourceArn":"%s"}}}]}`, qArn, *t.TopicArn),
			},
		})
		Expect(err).To(BeNil())

		msg := testutils.CreateText(maxByteSize + 1)
		_, err = heftySnsClient.PublishHeftyMessage(ctx, &sns.PublishInput{
			TopicArn: t.TopicArn,
			Message:  &msg,
			MessageAttributes: map[string]snsTypes.MessageAttributeValue{
				"test01": {DataType: aws.String("String"), StringValue: aws.String("value")},
			},
		})
		Expect(err).To(BeNil())

		res := ReceiveSqsMessage(queueUrl, []string{"test01"})
		Expect(*res.Messages[0].Body).To(Equal(msg))
	})
})

// lastToken returns the queue name of a queue url or the topic name of a topic arn.
func lastToken(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' || s[i] == ':' {
			return s[i+1:]
		}
	}
	return s
}
