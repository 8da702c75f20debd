package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"submission-preprocessor/internal/pipeline"
)

type fakeSQS struct {
	receiveIn  *awssqs.ReceiveMessageInput
	receiveOut *awssqs.ReceiveMessageOutput
	receiveErr error

	deleteIn  *awssqs.DeleteMessageInput
	deleteErr error
}

func (f *fakeSQS) GetQueueUrl(_ context.Context, _ *awssqs.GetQueueUrlInput, _ ...func(*awssqs.Options)) (*awssqs.GetQueueUrlOutput, error) {
	return &awssqs.GetQueueUrlOutput{QueueUrl: aws.String("http://localstack:4566/000000000000/submissions")}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	f.receiveIn = in
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	return f.receiveOut, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	f.deleteIn = in
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &awssqs.DeleteMessageOutput{}, nil
}

func testConsumer(client sqsAPI) *Consumer {
	return &Consumer{
		client:            client,
		queueURL:          "http://localstack:4566/000000000000/submissions",
		batchSize:         10,
		visibilityTimeout: 30,
		metrics:           pipeline.NewMetrics(prometheus.NewRegistry()),
	}
}

func TestReceiveMapsMessages(t *testing.T) {
	fake := &fakeSQS{
		receiveOut: &awssqs.ReceiveMessageOutput{
			Messages: []types.Message{
				{Body: aws.String("body-1"), ReceiptHandle: aws.String("rh-1")},
				{Body: aws.String("body-2"), ReceiptHandle: aws.String("rh-2")},
			},
		},
	}
	c := testConsumer(fake)

	msgs := c.Receive(context.Background())
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Body != "body-1" || msgs[0].ReceiptHandle != "rh-1" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if fake.receiveIn.MaxNumberOfMessages != 10 {
		t.Errorf("expected batch size 10, got %d", fake.receiveIn.MaxNumberOfMessages)
	}
	if fake.receiveIn.VisibilityTimeout != 30 {
		t.Errorf("expected visibility timeout 30, got %d", fake.receiveIn.VisibilityTimeout)
	}
}

func TestReceiveFailsSoft(t *testing.T) {
	fake := &fakeSQS{receiveErr: errors.New("endpoint unreachable")}
	c := testConsumer(fake)

	msgs := c.Receive(context.Background())
	if len(msgs) != 0 {
		t.Errorf("expected empty batch on transport error, got %d messages", len(msgs))
	}
	if got := testutil.ToFloat64(c.metrics.QueueErrors.WithLabelValues("receive")); got != 1 {
		t.Errorf("expected 1 receive error counted, got %v", got)
	}
}

func TestDeletePassesReceiptHandle(t *testing.T) {
	fake := &fakeSQS{}
	c := testConsumer(fake)

	if err := c.Delete(context.Background(), "rh-42"); err != nil {
		t.Fatalf("expected delete to succeed, got error: %v", err)
	}
	if aws.ToString(fake.deleteIn.ReceiptHandle) != "rh-42" {
		t.Errorf("expected receipt handle rh-42, got %s", aws.ToString(fake.deleteIn.ReceiptHandle))
	}
}

func TestDeleteReturnsWrappedError(t *testing.T) {
	fake := &fakeSQS{deleteErr: errors.New("throttled")}
	c := testConsumer(fake)

	err := c.Delete(context.Background(), "rh-42")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := testutil.ToFloat64(c.metrics.QueueErrors.WithLabelValues("delete")); got != 1 {
		t.Errorf("expected 1 delete error counted, got %v", got)
	}
}
