package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Closed set of event types a submission may carry.
const (
	EventTypeNewProcess        = "new_process"
	EventTypeNetworkConnection = "network_connection"
)

// KnownEventType reports whether t belongs to the closed event-type set.
func KnownEventType(t string) bool {
	return t == EventTypeNewProcess || t == EventTypeNetworkConnection
}

// ProcessedEvent is the normalized record published to the stream, derived
// from exactly one event entry inside a submission. It lives only for the
// duration of one pipeline pass and is never persisted; the unit of
// redelivery is the whole submission, not the event.
type ProcessedEvent struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	SubmissionID  string         `json:"submission_id"`
	DeviceID      string         `json:"device_id"`
	TimeProcessed time.Time      `json:"time_processed"`
	EventData     map[string]any `json:"event_data"`
}

// NewProcessedEvent assigns a fresh event ID and the processing timestamp.
// EventData is carried unmodified from the submission.
func NewProcessedEvent(eventType, submissionID, deviceID string, data map[string]any) ProcessedEvent {
	return ProcessedEvent{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		SubmissionID:  submissionID,
		DeviceID:      deviceID,
		TimeProcessed: time.Now().UTC(),
		EventData:     data,
	}
}

// Validate checks the per-type shape of EventData. It is a pure function of
// EventType and EventData; an invalid event is a normal outcome, not a
// failure of the pipeline. Unknown event types are rejected here too, even
// though submission validation already filters them out upstream.
func (e ProcessedEvent) Validate() error {
	switch e.EventType {
	case EventTypeNewProcess:
		return requireStrings(e.EventData, "cmdl", "user")

	case EventTypeNetworkConnection:
		if err := requireStrings(e.EventData, "source_ip", "destination_ip"); err != nil {
			return err
		}
		port, ok := e.EventData["destination_port"]
		if !ok {
			return fmt.Errorf("missing field %q", "destination_port")
		}
		if !isInteger(port) {
			return fmt.Errorf("field %q is not an integer", "destination_port")
		}
		return nil

	default:
		return fmt.Errorf("unknown event type %q", e.EventType)
	}
}

func requireStrings(data map[string]any, keys ...string) error {
	for _, key := range keys {
		v, ok := data[key]
		if !ok {
			return fmt.Errorf("missing field %q", key)
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q is not a string", key)
		}
	}
	return nil
}

// isInteger accepts the integer encodings JSON decoding can produce: Go ints
// from hand-built maps, float64 from encoding/json, json.Number when the
// decoder is configured with UseNumber.
func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	default:
		return false
	}
}
