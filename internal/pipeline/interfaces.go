package pipeline

import "context"

// Message is one leased queue entry: the raw envelope body plus the opaque
// handle needed to acknowledge it.
type Message struct {
	Body          string
	ReceiptHandle string
}

// Queue is the lease/acknowledge surface of the submissions queue. Receive
// fails soft: transport errors degrade to an empty batch so the loop keeps
// running, and an unacknowledged message redelivers after its visibility
// timeout expires.
type Queue interface {
	Receive(ctx context.Context) []Message
	Delete(ctx context.Context, receiptHandle string) error
}

// Stream appends processed events to the partitioned output stream,
// best-effort per event, and reports how many records were accepted.
type Stream interface {
	Publish(ctx context.Context, events []ProcessedEvent) int
}

// Validator gates whole submissions before decomposition: a non-nil error
// rejects the submission entirely.
type Validator interface {
	Validate(raw map[string]any) error
}
