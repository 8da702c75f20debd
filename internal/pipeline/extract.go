package pipeline

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Submission is the typed view of one batch document from a device, built
// only after the raw object passed structural validation.
type Submission struct {
	SubmissionID string
	DeviceID     string
	TimeCreated  string
	Events       map[string][]any
}

// DecodeEnvelope unpacks the transport envelope: base64-encoded UTF-8 text
// of a JSON object. The untyped object goes to the submission validator
// before anything else looks at it.
func DecodeEnvelope(body string) (map[string]any, error) {
	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(decoded, &raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return raw, nil
}

// SubmissionFromRaw builds the typed view of an already-validated raw
// submission object.
func SubmissionFromRaw(raw map[string]any) Submission {
	sub := Submission{Events: map[string][]any{}}
	sub.SubmissionID, _ = raw["submission_id"].(string)
	sub.DeviceID, _ = raw["device_id"].(string)
	sub.TimeCreated, _ = raw["time_created"].(string)
	if events, ok := raw["events"].(map[string]any); ok {
		for eventType, v := range events {
			if list, ok := v.([]any); ok {
				sub.Events[eventType] = list
			}
		}
	}
	return sub
}

// ExtractEvents decomposes a validated submission into one ProcessedEvent
// per event entry. Within one event type the input order is preserved;
// order across event types carries no meaning. Entries that are not JSON
// objects produce an event with nil data, which per-event validation drops.
func ExtractEvents(sub Submission) []ProcessedEvent {
	var out []ProcessedEvent
	for eventType, list := range sub.Events {
		for _, item := range list {
			data, _ := item.(map[string]any)
			out = append(out, NewProcessedEvent(eventType, sub.SubmissionID, sub.DeviceID, data))
		}
	}
	return out
}
