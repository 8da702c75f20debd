package validator

import (
	"fmt"

	"github.com/google/uuid"

	"submission-preprocessor/internal/pipeline"
)

// SubmissionValidator checks the structural shape of a raw submission
// before any event is extracted. A submission is accepted or rejected as a
// whole; per-event data shapes are checked later, after decomposition.
type SubmissionValidator struct{}

// Validate returns nil only for submissions matching the canonical shape:
// the four required fields present, both IDs canonical UUIDs, time_created
// a string, and events an object mapping known event types to lists.
func (v *SubmissionValidator) Validate(raw map[string]any) error {
	for _, key := range []string{"submission_id", "device_id", "time_created", "events"} {
		if _, ok := raw[key]; !ok {
			return fmt.Errorf("missing required field %q", key)
		}
	}

	if err := checkCanonicalUUID("submission_id", raw["submission_id"]); err != nil {
		return err
	}
	if err := checkCanonicalUUID("device_id", raw["device_id"]); err != nil {
		return err
	}

	if _, ok := raw["time_created"].(string); !ok {
		return fmt.Errorf("time_created is not a string")
	}

	events, ok := raw["events"].(map[string]any)
	if !ok {
		return fmt.Errorf("events is not an object")
	}
	for eventType, list := range events {
		if !pipeline.KnownEventType(eventType) {
			return fmt.Errorf("unknown event type %q", eventType)
		}
		if _, ok := list.([]any); !ok {
			return fmt.Errorf("events[%q] is not a list", eventType)
		}
	}

	return nil
}

// checkCanonicalUUID requires the lowercase hyphenated form: the value must
// survive a parse/format round trip unchanged, so uppercase or braced UUIDs
// that still parse are rejected.
func checkCanonicalUUID(field string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%s is not a string", field)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("%s is not a valid uuid: %w", field, err)
	}
	if id.String() != s {
		return fmt.Errorf("%s is not a canonical-form uuid", field)
	}
	return nil
}
