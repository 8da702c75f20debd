package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"submission-preprocessor/internal/config"
	"submission-preprocessor/internal/pipeline"
	"submission-preprocessor/pkg/logger"
)

// SQS caps MaxNumberOfMessages at 10 per receive call.
const maxReceiveBatch = 10

// sqsAPI is the slice of the SQS client the consumer uses.
type sqsAPI interface {
	GetQueueUrl(ctx context.Context, params *awssqs.GetQueueUrlInput, optFns ...func(*awssqs.Options)) (*awssqs.GetQueueUrlOutput, error)
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
}

// Consumer leases submission messages from SQS and deletes them by receipt
// handle. One client instance is reused for the whole process lifetime.
type Consumer struct {
	client            sqsAPI
	queueURL          string
	batchSize         int32
	visibilityTimeout int32
	metrics           *pipeline.Metrics
}

func NewConsumer(ctx context.Context, awsCfg aws.Config, cfg *config.Config, metrics *pipeline.Metrics) (*Consumer, error) {
	client := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})

	out, err := client.GetQueueUrl(ctx, &awssqs.GetQueueUrlInput{
		QueueName: aws.String(cfg.QueueName),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve queue url for %q: %w", cfg.QueueName, err)
	}

	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	if batchSize > maxReceiveBatch {
		batchSize = maxReceiveBatch
	}

	logger.Get().Infow("sqs consumer initialized",
		"queue", cfg.QueueName,
		"queue_url", aws.ToString(out.QueueUrl),
		"batch_size", batchSize,
	)

	return &Consumer{
		client:            client,
		queueURL:          aws.ToString(out.QueueUrl),
		batchSize:         int32(batchSize),
		visibilityTimeout: int32(cfg.VisibilityTimeoutSeconds),
		metrics:           metrics,
	}, nil
}

// Receive leases up to one batch of messages. Transport errors degrade to an
// empty batch so the caller's loop keeps running; the messages stay invisible
// only until the lease expires.
func (c *Consumer) Receive(ctx context.Context) []pipeline.Message {
	out, err := c.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: c.batchSize,
		VisibilityTimeout:   c.visibilityTimeout,
	})
	if err != nil {
		logger.Get().Warnw("receive from sqs failed", "queue_url", c.queueURL, "error", err)
		c.metrics.QueueErrors.WithLabelValues("receive").Inc()
		return nil
	}

	msgs := make([]pipeline.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, pipeline.Message{
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs
}

// Delete acknowledges a message. Deleting an already-deleted message is a
// no-op on the SQS side, so retried deletes are safe.
func (c *Consumer) Delete(ctx context.Context, receiptHandle string) error {
	_, err := c.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		c.metrics.QueueErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
