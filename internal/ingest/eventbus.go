package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxbridge/lt-engine/internal/api"
	"github.com/voxbridge/lt-engine/internal/metrics"
)

// EventBus provides pub-sub event distribution for SSE subscribers, with a
// ring buffer for replay on reconnect.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	nextID      uint64
	seq         atomic.Uint64

	ring     []api.SSEEvent
	ringSize int
	ringHead int
	ringMu   sync.RWMutex
}

type subscriber struct {
	ch     chan api.SSEEvent
	filter api.EventFilter
}

func NewEventBus(ringSize int) *EventBus {
	return &EventBus{
		subscribers: make(map[uint64]subscriber),
		ring:        make([]api.SSEEvent, ringSize),
		ringSize:    ringSize,
	}
}

// Subscribe registers a new subscriber and returns a channel and cancel
// function. Slow subscribers drop events rather than block the publisher.
func (eb *EventBus) Subscribe(filter api.EventFilter) (<-chan api.SSEEvent, func()) {
	eb.mu.Lock()
	id := eb.nextID
	eb.nextID++
	ch := make(chan api.SSEEvent, 64)
	eb.subscribers[id] = subscriber{ch: ch, filter: filter}
	eb.mu.Unlock()

	cancel := func() {
		eb.mu.Lock()
		delete(eb.subscribers, id)
		eb.mu.Unlock()
	}
	return ch, cancel
}

// ReplaySince returns buffered events after the given event ID.
func (eb *EventBus) ReplaySince(lastEventID string, filter api.EventFilter) []api.SSEEvent {
	eb.ringMu.RLock()
	defer eb.ringMu.RUnlock()

	var events []api.SSEEvent
	found := lastEventID == ""

	for i := 0; i < eb.ringSize; i++ {
		idx := (eb.ringHead + i) % eb.ringSize
		e := eb.ring[idx]
		if e.ID == "" {
			continue
		}
		if !found {
			if e.ID == lastEventID {
				found = true
			}
			continue
		}
		if matchesFilter(e, filter) {
			events = append(events, e)
		}
	}
	return events
}

// EventData holds the fields needed to publish an SSE event.
type EventData struct {
	Type           string
	CallID         string
	OrganizationID string
	Payload        any
}

// Publish sends an event to all matching subscribers and adds it to the ring
// buffer.
func (eb *EventBus) Publish(e EventData) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return
	}

	seq := eb.seq.Add(1)
	event := api.SSEEvent{
		ID:             fmt.Sprintf("%d-%d", time.Now().UnixMilli(), seq),
		Type:           e.Type,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		CallID:         e.CallID,
		OrganizationID: e.OrganizationID,
		Data:           data,
	}

	eb.ringMu.Lock()
	eb.ring[eb.ringHead] = event
	eb.ringHead = (eb.ringHead + 1) % eb.ringSize
	eb.ringMu.Unlock()

	metrics.EventsPublishedTotal.Inc()

	eb.mu.RLock()
	for _, sub := range eb.subscribers {
		if matchesFilter(event, sub.filter) {
			select {
			case sub.ch <- event:
			default:
				// Drop if subscriber is slow
			}
		}
	}
	eb.mu.RUnlock()
}

func matchesFilter(e api.SSEEvent, f api.EventFilter) bool {
	if len(f.Types) > 0 && !containsTrimmed(f.Types, e.Type) {
		return false
	}
	if len(f.CallIDs) > 0 && e.CallID != "" && !containsTrimmed(f.CallIDs, e.CallID) {
		return false
	}
	if len(f.Organizations) > 0 && e.OrganizationID != "" && !containsTrimmed(f.Organizations, e.OrganizationID) {
		return false
	}
	return true
}

func containsTrimmed(list []string, v string) bool {
	for _, s := range list {
		if strings.TrimSpace(s) == v {
			return true
		}
	}
	return false
}
