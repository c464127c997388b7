package api

// LiveDataSource provides real-time data from the ingest pipeline to the API
// layer. The pipeline implements this interface, api owns it, so there is no
// circular import.
type LiveDataSource interface {
	// Subscribe returns a channel that receives SSE events matching the
	// filter, and a cancel function to unsubscribe.
	Subscribe(filter EventFilter) (<-chan SSEEvent, func())

	// ReplaySince returns buffered events since the given event ID (for
	// Last-Event-ID recovery).
	ReplaySince(lastEventID string, filter EventFilter) []SSEEvent

	// Stats returns live pipeline counters.
	Stats() PipelineStatsData
}

// PipelineStatsData is a snapshot of the pipeline's counters.
type PipelineStatsData struct {
	MessagesTotal     int64 `json:"messages_total"`
	SegmentsQueued    int64 `json:"segments_queued"`
	SegmentsDropped   int64 `json:"segments_dropped"`
	SegmentsCompleted int64 `json:"segments_completed"`
	SegmentsFailed    int64 `json:"segments_failed"`
	ActiveLanes       int   `json:"active_lanes"`
}

// EventFilter specifies which events an SSE subscriber wants to receive.
type EventFilter struct {
	Types         []string
	CallIDs       []string
	Organizations []string
}

// SSEEvent represents a server-sent event ready for transmission.
type SSEEvent struct {
	ID             string `json:"event_id"`
	Type           string `json:"event_type"`
	Timestamp      string `json:"timestamp"`
	CallID         string `json:"call_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	Data           []byte `json:"-"` // pre-serialized JSON payload
}
