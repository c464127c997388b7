package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/voxbridge/lt-engine/internal/api"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	t.Run("subscriber_receives_published_event", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(api.EventFilter{})
		defer cancel()

		eb.Publish(EventData{
			Type:           "translation",
			CallID:         "call-1",
			OrganizationID: "org-1",
			Payload:        map[string]string{"translated_text": "hola"},
		})

		select {
		case evt := <-ch:
			if evt.Type != "translation" {
				t.Errorf("Type = %q, want translation", evt.Type)
			}
			if evt.CallID != "call-1" {
				t.Errorf("CallID = %q, want call-1", evt.CallID)
			}
			if evt.ID == "" {
				t.Error("expected non-empty event ID")
			}
			var payload map[string]string
			if err := json.Unmarshal(evt.Data, &payload); err != nil {
				t.Fatalf("Data is not valid JSON: %v", err)
			}
			if payload["translated_text"] != "hola" {
				t.Errorf("payload translated_text = %q, want hola", payload["translated_text"])
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	})

	t.Run("filtered_subscriber_misses_non_matching", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(api.EventFilter{Types: []string{"call_end"}})
		defer cancel()

		eb.Publish(EventData{Type: "translation", Payload: "x"})

		select {
		case evt := <-ch:
			t.Fatalf("should not receive event, got %+v", evt)
		case <-time.After(50 * time.Millisecond):
			// expected
		}
	})

	t.Run("call_filter_matches", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(api.EventFilter{CallIDs: []string{"call-2"}})
		defer cancel()

		eb.Publish(EventData{Type: "translation", CallID: "call-1", Payload: "x"})
		eb.Publish(EventData{Type: "translation", CallID: "call-2", Payload: "y"})

		select {
		case evt := <-ch:
			if evt.CallID != "call-2" {
				t.Errorf("CallID = %q, want call-2", evt.CallID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for filtered event")
		}
	})

	t.Run("cancel_stops_delivery", func(t *testing.T) {
		eb := NewEventBus(64)
		ch, cancel := eb.Subscribe(api.EventFilter{})
		cancel()

		eb.Publish(EventData{Type: "translation", Payload: "x"})

		select {
		case _, ok := <-ch:
			if ok {
				t.Fatal("should not receive event after cancel")
			}
		case <-time.After(50 * time.Millisecond):
			// expected, channel not closed, just removed from map
		}
	})
}

func TestEventBusReplaySince(t *testing.T) {
	t.Run("replay_all_when_empty_lastID", func(t *testing.T) {
		eb := NewEventBus(64)
		eb.Publish(EventData{Type: "translation", Payload: "a"})
		eb.Publish(EventData{Type: "call_end", Payload: "b"})

		events := eb.ReplaySince("", api.EventFilter{})
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2", len(events))
		}
	})

	t.Run("replay_after_known_id", func(t *testing.T) {
		eb := NewEventBus(64)
		eb.Publish(EventData{Type: "translation", Payload: "a"})
		first := eb.ReplaySince("", api.EventFilter{})
		if len(first) != 1 {
			t.Fatalf("got %d events, want 1", len(first))
		}
		eb.Publish(EventData{Type: "translation", Payload: "b"})
		eb.Publish(EventData{Type: "translation", Payload: "c"})

		events := eb.ReplaySince(first[0].ID, api.EventFilter{})
		if len(events) != 2 {
			t.Fatalf("got %d events after id, want 2", len(events))
		}
	})

	t.Run("replay_respects_filter", func(t *testing.T) {
		eb := NewEventBus(64)
		eb.Publish(EventData{Type: "translation", Payload: "a"})
		eb.Publish(EventData{Type: "call_end", Payload: "b"})

		events := eb.ReplaySince("", api.EventFilter{Types: []string{"call_end"}})
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1", len(events))
		}
		if events[0].Type != "call_end" {
			t.Errorf("Type = %q, want call_end", events[0].Type)
		}
	})

	t.Run("ring_overwrites_oldest", func(t *testing.T) {
		eb := NewEventBus(4)
		for i := 0; i < 10; i++ {
			eb.Publish(EventData{Type: "translation", Payload: i})
		}
		events := eb.ReplaySince("", api.EventFilter{})
		if len(events) != 4 {
			t.Fatalf("got %d events, want ring size 4", len(events))
		}
	})
}
