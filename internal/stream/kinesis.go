package stream

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"

	"submission-preprocessor/internal/config"
	"submission-preprocessor/internal/pipeline"
	"submission-preprocessor/pkg/logger"
)

// kinesisAPI is the slice of the Kinesis client the publisher uses.
type kinesisAPI interface {
	PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
}

// Publisher appends processed events to the Kinesis output stream. Write
// path only; nothing is ever read back.
type Publisher struct {
	client     kinesisAPI
	streamName string
	metrics    *pipeline.Metrics
}

func NewPublisher(awsCfg aws.Config, cfg *config.Config, metrics *pipeline.Metrics) *Publisher {
	client := kinesis.NewFromConfig(awsCfg, func(o *kinesis.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})

	logger.Get().Infow("kinesis publisher initialized", "stream", cfg.StreamName)
	return &Publisher{
		client:     client,
		streamName: cfg.StreamName,
		metrics:    metrics,
	}
}

// Publish writes one record per event, partitioned by submission ID so all
// events of a submission land on the same shard in their original order.
// Best-effort per record: a failed put logs, counts, and does not stop the
// remaining events. Returns the number of records accepted.
func (p *Publisher) Publish(ctx context.Context, events []pipeline.ProcessedEvent) int {
	log := logger.Get().With("component", "kinesis_publisher", "stream", p.streamName)

	published := 0
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Errorw("failed to marshal event", "event_id", ev.EventID, "error", err)
			p.metrics.PublishErrors.Inc()
			continue
		}

		_, err = p.client.PutRecord(ctx, &kinesis.PutRecordInput{
			StreamName:   aws.String(p.streamName),
			Data:         payload,
			PartitionKey: aws.String(ev.SubmissionID),
		})
		if err != nil {
			log.Warnw("put record failed",
				"event_id", ev.EventID,
				"event_type", ev.EventType,
				"submission_id", ev.SubmissionID,
				"error", err,
			)
			p.metrics.PublishErrors.Inc()
			continue
		}

		published++
		p.metrics.EventsPublished.Inc()
	}
	return published
}
