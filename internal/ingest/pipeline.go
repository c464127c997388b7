// Package ingest consumes the MQTT segment feed and call-control
// announcements, validates them, and hands segments to the translation
// worker pool.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxbridge/lt-engine/internal/api"
	"github.com/voxbridge/lt-engine/internal/database"
	"github.com/voxbridge/lt-engine/internal/metrics"
	"github.com/voxbridge/lt-engine/internal/translate"
)

// SegmentQueue accepts segments for asynchronous processing.
// Implemented by *translate.WorkerPool.
type SegmentQueue interface {
	Enqueue(seg translate.Segment) bool
	Stats() translate.QueueStats
}

// CallStore is the slice of the database the pipeline needs for call-control
// bookkeeping. Implemented by *database.DB.
type CallStore interface {
	GetCallLeg(ctx context.Context, callID string) (*database.CallLeg, error)
	UpsertCallLeg(ctx context.Context, c *database.CallLeg) error
	SetCallStatus(ctx context.Context, callID, status string) error
}

// LaneCloser tears down per-leg injection state when a call ends.
// Implemented by *inject.Queue.
type LaneCloser interface {
	CloseLane(callControlID string)
	Lanes() int
}

// ResultPublisher echoes per-segment outcomes back to the broker.
// Implemented by *mqttclient.Client.
type ResultPublisher interface {
	Publish(topic string, payload []byte) error
}

// Pipeline routes MQTT traffic to the right handler and tracks counters.
type Pipeline struct {
	calls   CallStore
	queue   SegmentQueue
	lanes   LaneCloser      // nil when voice-to-voice is disabled
	results ResultPublisher // nil disables result echo
	bus     *EventBus
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	msgCount     atomic.Int64
	queuedCount  atomic.Int64
	droppedCount atomic.Int64
}

type PipelineOptions struct {
	Calls   CallStore
	Queue   SegmentQueue
	Lanes   LaneCloser
	Results ResultPublisher
	Log     zerolog.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		calls:   opts.Calls,
		queue:   opts.Queue,
		lanes:   opts.Lanes,
		results: opts.Results,
		bus:     NewEventBus(4096),
		log:     opts.Log.With().Str("component", "ingest").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins periodic stats logging.
func (p *Pipeline) Start() {
	go p.statsLoop()
	p.log.Info().Msg("ingest pipeline started")
}

// Stop cancels background loops.
func (p *Pipeline) Stop() {
	p.log.Info().Int64("total_messages", p.msgCount.Load()).Msg("ingest pipeline stopping")
	p.cancel()
}

// HandleMessage is the MQTT message entry point.
func (p *Pipeline) HandleMessage(topic string, payload []byte) {
	p.msgCount.Add(1)
	metrics.MQTTMessagesTotal.Inc()

	route := ParseTopic(topic)
	if route == nil {
		p.log.Debug().Str("topic", topic).Msg("unroutable topic, dropping")
		return
	}

	switch route.Handler {
	case "segment":
		p.handleSegment(route.OrgID, payload)
	case "call_start":
		p.handleCallStart(route.OrgID, payload)
	case "call_end":
		p.handleCallEnd(payload)
	}
}

func (p *Pipeline) handleSegment(orgID string, payload []byte) {
	var seg translate.Segment
	if err := json.Unmarshal(payload, &seg); err != nil {
		p.log.Warn().Err(err).Msg("malformed segment payload")
		return
	}
	if seg.OrganizationID == "" {
		seg.OrganizationID = orgID
	}
	if seg.CallID == "" || seg.OriginalText == "" {
		p.log.Warn().
			Str("call_id", seg.CallID).
			Int("segment_index", seg.SegmentIndex).
			Msg("segment missing call id or text, dropping")
		p.droppedCount.Add(1)
		return
	}

	if !p.queue.Enqueue(seg) {
		p.droppedCount.Add(1)
		p.log.Warn().
			Str("call_id", seg.CallID).
			Int("segment_index", seg.SegmentIndex).
			Msg("segment queue full, dropping")
		return
	}
	p.queuedCount.Add(1)
}

func (p *Pipeline) handleCallStart(orgID string, payload []byte) {
	var msg callStartMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		p.log.Warn().Err(err).Msg("malformed call_start payload")
		return
	}
	if msg.CallID == "" {
		p.log.Warn().Msg("call_start missing call id, dropping")
		return
	}
	if msg.OrganizationID == "" {
		msg.OrganizationID = orgID
	}
	if msg.FlowType == "" {
		msg.FlowType = database.FlowDirect
	}

	leg := &database.CallLeg{
		ID:             msg.CallID,
		OrganizationID: msg.OrganizationID,
		FlowType:       msg.FlowType,
		CallControlID:  msg.CallControlID,
		Status:         "active",
	}
	if msg.BridgePartnerID != "" {
		leg.BridgePartnerID = &msg.BridgePartnerID
	}

	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()
	if err := p.calls.UpsertCallLeg(ctx, leg); err != nil {
		p.log.Error().Err(err).Str("call_id", msg.CallID).Msg("failed to upsert call leg")
		return
	}

	p.log.Info().
		Str("call_id", msg.CallID).
		Str("flow_type", msg.FlowType).
		Msg("call started")
	p.bus.Publish(EventData{
		Type:           "call_start",
		CallID:         msg.CallID,
		OrganizationID: msg.OrganizationID,
		Payload:        msg,
	})
}

func (p *Pipeline) handleCallEnd(payload []byte) {
	var msg callEndMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		p.log.Warn().Err(err).Msg("malformed call_end payload")
		return
	}
	if msg.CallID == "" {
		p.log.Warn().Msg("call_end missing call id, dropping")
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()

	callControlID := msg.CallControlID
	if callControlID == "" {
		if leg, err := p.calls.GetCallLeg(ctx, msg.CallID); err == nil {
			callControlID = leg.CallControlID
		}
	}

	if err := p.calls.SetCallStatus(ctx, msg.CallID, "ended"); err != nil {
		p.log.Error().Err(err).Str("call_id", msg.CallID).Msg("failed to mark call ended")
	}
	if p.lanes != nil && callControlID != "" {
		p.lanes.CloseLane(callControlID)
	}

	p.log.Info().Str("call_id", msg.CallID).Msg("call ended")
	p.bus.Publish(EventData{Type: "call_end", CallID: msg.CallID, Payload: msg})
}

// PublishResult forwards a per-segment outcome to SSE subscribers and, when a
// broker publisher is wired, echoes it on lt/{org_id}/result.
func (p *Pipeline) PublishResult(eventType, orgID, callID string, payload map[string]any) {
	p.bus.Publish(EventData{
		Type:           eventType,
		CallID:         callID,
		OrganizationID: orgID,
		Payload:        payload,
	})

	if p.results == nil || orgID == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	topic := fmt.Sprintf("lt/%s/result", orgID)
	if err := p.results.Publish(topic, data); err != nil {
		p.log.Warn().Err(err).Str("topic", topic).Msg("failed to publish result")
	}
}

// Subscribe implements api.LiveDataSource.
func (p *Pipeline) Subscribe(filter api.EventFilter) (<-chan api.SSEEvent, func()) {
	return p.bus.Subscribe(filter)
}

// ReplaySince implements api.LiveDataSource.
func (p *Pipeline) ReplaySince(lastEventID string, filter api.EventFilter) []api.SSEEvent {
	return p.bus.ReplaySince(lastEventID, filter)
}

// Stats implements api.LiveDataSource.
func (p *Pipeline) Stats() api.PipelineStatsData {
	qs := p.queue.Stats()
	stats := api.PipelineStatsData{
		MessagesTotal:     p.msgCount.Load(),
		SegmentsQueued:    p.queuedCount.Load(),
		SegmentsDropped:   p.droppedCount.Load(),
		SegmentsCompleted: qs.Completed,
		SegmentsFailed:    qs.Failed,
	}
	if p.lanes != nil {
		stats.ActiveLanes = p.lanes.Lanes()
	}
	return stats
}

// statsLoop logs counters every 60 seconds.
func (p *Pipeline) statsLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	var lastTotal int64
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			total := p.msgCount.Load()
			delta := total - lastTotal
			lastTotal = total

			qs := p.queue.Stats()
			p.log.Info().
				Int64("total", total).
				Int64("last_60s", delta).
				Int("pending", qs.Pending).
				Int64("completed", qs.Completed).
				Int64("failed", qs.Failed).
				Msg("stats")
		}
	}
}
