package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"submission-preprocessor/internal/config"
	"submission-preprocessor/pkg/logger"
)

// Orchestrator runs the perpetual lease/process/acknowledge loop: receive a
// batch of submission messages, run each through decode, structural
// validation, event extraction, per-event validation and publishing, then
// delete the message. No error escapes the per-message boundary; the loop
// only stops on shutdown.
type Orchestrator struct {
	queue     Queue
	stream    Stream
	validator Validator
	metrics   *Metrics
	cfg       *config.Config
	limiter   *rate.Limiter
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	wg        sync.WaitGroup
}

func NewOrchestrator(q Queue, s Stream, val Validator, metrics *Metrics, cfg *config.Config) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	rps := cfg.RatePerSecond
	if rps < 1 {
		rps = 1
	}
	burst := cfg.BatchSize
	if burst < 1 {
		burst = 1
	}

	return &Orchestrator{
		queue:     q,
		stream:    s,
		validator: val,
		metrics:   metrics,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Start launches the processing loop in its own goroutine.
func (o *Orchestrator) Start() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run()
	}()
}

func (o *Orchestrator) run() {
	log := logger.Get().With("component", "orchestrator")
	log.Infow("pipeline started",
		"batch_size", o.cfg.BatchSize,
		"visibility_timeout_s", o.cfg.VisibilityTimeoutSeconds,
		"rate_per_second", o.cfg.RatePerSecond,
	)

	for {
		select {
		case <-o.ctx.Done():
			log.Infow("pipeline loop exiting", "reason", "context cancelled")
			return
		default:
		}

		msgs := o.queue.Receive(o.ctx)
		if len(msgs) == 0 {
			o.idle()
			continue
		}

		for _, msg := range msgs {
			if err := o.limiter.Wait(o.ctx); err != nil {
				log.Infow("pipeline loop exiting", "reason", "context cancelled")
				return
			}
			o.processMessage(o.ctx, msg)
		}
	}
}

func (o *Orchestrator) idle() {
	select {
	case <-o.ctx.Done():
	case <-time.After(o.cfg.PollIdle):
	}
}

func (o *Orchestrator) processMessage(ctx context.Context, msg Message) {
	start := time.Now()
	o.metrics.SubmissionsReceived.Inc()
	log := logger.Get().With("component", "orchestrator")

	// A message that cannot be decoded or validated is acknowledged anyway:
	// malformed input is not recoverable by redelivery.
	raw, err := DecodeEnvelope(msg.Body)
	if err != nil {
		log.Warnw("dropping undecodable message", "error", err)
		o.metrics.SubmissionsInvalid.Inc()
		o.ack(ctx, msg)
		return
	}

	if err := o.validator.Validate(raw); err != nil {
		log.Warnw("dropping invalid submission", "error", err)
		o.metrics.SubmissionsInvalid.Inc()
		o.ack(ctx, msg)
		return
	}

	sub := SubmissionFromRaw(raw)
	slog := log.With("submission_id", sub.SubmissionID, "device_id", sub.DeviceID)

	events := ExtractEvents(sub)
	o.metrics.EventsExtracted.Add(float64(len(events)))

	valid := make([]ProcessedEvent, 0, len(events))
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			slog.Warnw("dropping invalid event",
				"event_id", ev.EventID,
				"event_type", ev.EventType,
				"error", err,
			)
			o.metrics.EventsDropped.Inc()
			continue
		}
		valid = append(valid, ev)
	}

	published := 0
	if len(valid) > 0 {
		published = o.stream.Publish(ctx, valid)
	}

	// Acknowledge regardless of how many events survived: a submission whose
	// every event failed validation is done, not retryable.
	o.ack(ctx, msg)

	o.metrics.SubmissionsProcessed.Inc()
	o.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	slog.Infow("submission processed",
		"extracted", len(events),
		"valid", len(valid),
		"published", published,
		"latency_ms", time.Since(start).Milliseconds(),
	)
}

func (o *Orchestrator) ack(ctx context.Context, msg Message) {
	if err := o.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		// The message will redeliver after its visibility timeout; the next
		// pass reprocesses it (at-least-once).
		logger.Get().Warnw("failed to delete message", "error", err)
	}
}

// Shutdown stops the loop and waits for the in-flight message to finish.
func (o *Orchestrator) Shutdown() {
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) Context() context.Context {
	return o.ctx
}

func (o *Orchestrator) StartTime() time.Time {
	return o.startTime
}
