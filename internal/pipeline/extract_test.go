package pipeline

import (
	"encoding/base64"
	"reflect"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	body := base64.StdEncoding.EncodeToString([]byte(`{"submission_id":"abc","events":{}}`))

	raw, err := DecodeEnvelope(body)
	if err != nil {
		t.Fatalf("expected decode to succeed, got error: %v", err)
	}
	if raw["submission_id"] != "abc" {
		t.Errorf("expected submission_id abc, got %v", raw["submission_id"])
	}
}

func TestDecodeEnvelopeBadBase64(t *testing.T) {
	if _, err := DecodeEnvelope("%%% not base64 %%%"); err == nil {
		t.Error("expected error for invalid base64, got nil")
	}
}

func TestDecodeEnvelopeBadJSON(t *testing.T) {
	body := base64.StdEncoding.EncodeToString([]byte("{truncated"))
	if _, err := DecodeEnvelope(body); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestExtractEventsRoundTrip(t *testing.T) {
	sub := Submission{
		SubmissionID: "123e4567-e89b-12d3-a456-426614174000",
		DeviceID:     "123e4567-e89b-12d3-a456-426614174001",
		TimeCreated:  "2022-02-18T10:00:00Z",
		Events: map[string][]any{
			EventTypeNewProcess: {
				map[string]any{"cmdl": "whoami", "user": "john"},
			},
			EventTypeNetworkConnection: {
				map[string]any{"source_ip": "192.168.1.1", "destination_ip": "192.168.1.2", "destination_port": 80},
			},
		},
	}

	events := ExtractEvents(sub)
	if len(events) != 2 {
		t.Fatalf("expected 2 extracted events, got %d", len(events))
	}

	for _, ev := range events {
		if ev.SubmissionID != sub.SubmissionID {
			t.Errorf("expected submission_id %s, got %s", sub.SubmissionID, ev.SubmissionID)
		}
		if ev.DeviceID != sub.DeviceID {
			t.Errorf("expected device_id %s, got %s", sub.DeviceID, ev.DeviceID)
		}
		want := sub.Events[ev.EventType][0]
		if !reflect.DeepEqual(any(ev.EventData), want) {
			t.Errorf("expected event_data carried unchanged, got %v want %v", ev.EventData, want)
		}
	}
}

func TestExtractEventsPreservesOrderWithinType(t *testing.T) {
	var list []any
	for i := 0; i < 10; i++ {
		list = append(list, map[string]any{"cmdl": "cmd", "user": "u", "seq": i})
	}
	sub := Submission{
		SubmissionID: "sub",
		DeviceID:     "dev",
		Events:       map[string][]any{EventTypeNewProcess: list},
	}

	events := ExtractEvents(sub)
	if len(events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(events))
	}
	for i, ev := range events {
		if seq := ev.EventData["seq"].(int); seq != i {
			t.Fatalf("expected input order preserved, position %d holds seq %d", i, seq)
		}
	}
}

func TestExtractEventsEmptySubmission(t *testing.T) {
	events := ExtractEvents(Submission{SubmissionID: "sub", DeviceID: "dev", Events: map[string][]any{}})
	if len(events) != 0 {
		t.Errorf("expected no events for empty submission, got %d", len(events))
	}
}

func TestExtractEventsNonObjectEntry(t *testing.T) {
	// A list entry that is not a JSON object still extracts, but with nil
	// data, so per-event validation drops it.
	sub := Submission{
		SubmissionID: "sub",
		DeviceID:     "dev",
		Events:       map[string][]any{EventTypeNewProcess: {"just a string"}},
	}

	events := ExtractEvents(sub)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventData != nil {
		t.Errorf("expected nil event_data, got %v", events[0].EventData)
	}
	if err := events[0].Validate(); err == nil {
		t.Error("expected nil-data event to fail validation")
	}
}

func TestSubmissionFromRaw(t *testing.T) {
	raw := map[string]any{
		"submission_id": "123e4567-e89b-12d3-a456-426614174000",
		"device_id":     "123e4567-e89b-12d3-a456-426614174001",
		"time_created":  "2022-02-18T10:00:00Z",
		"events": map[string]any{
			EventTypeNewProcess: []any{map[string]any{"cmdl": "whoami", "user": "john"}},
		},
	}

	sub := SubmissionFromRaw(raw)
	if sub.SubmissionID != raw["submission_id"] {
		t.Errorf("expected submission_id copied, got %s", sub.SubmissionID)
	}
	if sub.DeviceID != raw["device_id"] {
		t.Errorf("expected device_id copied, got %s", sub.DeviceID)
	}
	if sub.TimeCreated != raw["time_created"] {
		t.Errorf("expected time_created copied, got %s", sub.TimeCreated)
	}
	if len(sub.Events[EventTypeNewProcess]) != 1 {
		t.Errorf("expected one new_process entry, got %d", len(sub.Events[EventTypeNewProcess]))
	}
}
