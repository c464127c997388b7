// Package inject delivers synthesized audio into live call legs via the
// telephony control plane. Injections for one call control id are strictly
// serialized and ordered by segment index; unrelated call legs proceed
// concurrently with no shared lock.
package inject

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxbridge/lt-engine/internal/database"
	"github.com/voxbridge/lt-engine/internal/metrics"
	"github.com/voxbridge/lt-engine/internal/translate"
)

// StatusStore persists the injection work-item lifecycle.
// Implemented by *database.DB.
type StatusStore interface {
	CreateInjection(ctx context.Context, row *database.AudioInjectionRow) (int64, error)
	MarkInjectionProcessing(ctx context.Context, id int64) error
	MarkInjectionCompleted(ctx context.Context, id int64, injectionID string) error
	MarkInjectionFailed(ctx context.Context, id int64, reason string) error
}

// PlaybackProvider starts playback of a public audio URL into a live call leg
// and returns the provider's playback identifier.
// Implemented by *TelnyxClient.
type PlaybackProvider interface {
	StartPlayback(ctx context.Context, callControlID, audioURL string) (string, error)
}

// QueueOptions configures the injection queue.
type QueueOptions struct {
	Store    StatusStore
	Provider PlaybackProvider
	Timeout  time.Duration // per-delivery bound, provider call included
	Log      zerolog.Logger
}

// Queue serializes audio injections per call control id. Lanes are created
// lazily on first use and torn down when the call ends or the lane drains.
type Queue struct {
	store    StatusStore
	provider PlaybackProvider
	timeout  time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	lanes map[string]*lane

	ctx    context.Context
	cancel context.CancelFunc
}

type job struct {
	rowID int64
	req   translate.InjectionRequest
	done  chan jobResult
}

type jobResult struct {
	res *translate.InjectionResult
	err error
}

// lane is the ordered, single-flight delivery queue for one call control id.
type lane struct {
	q   *Queue
	key string

	mu      sync.Mutex
	pending []*job // kept sorted by segment index
	running bool
	closed  bool
}

func NewQueue(opts QueueOptions) *Queue {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		store:    opts.Store,
		provider: opts.Provider,
		timeout:  opts.Timeout,
		log:      opts.Log.With().Str("component", "inject").Logger(),
		lanes:    map[string]*lane{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Inject queues one delivery and waits for the provider's answer. The call
// returns once this request's turn has come and the provider has confirmed or
// rejected playback. A failure is terminal for this segment's audio.
func (q *Queue) Inject(ctx context.Context, req translate.InjectionRequest) (*translate.InjectionResult, error) {
	if req.TargetCallControlID == "" {
		return nil, fmt.Errorf("no target call control id for call %s segment %d", req.CallID, req.SegmentIndex)
	}

	rowID, err := q.store.CreateInjection(ctx, &database.AudioInjectionRow{
		CallID:         req.CallID,
		OrganizationID: req.OrganizationID,
		SegmentIndex:   req.SegmentIndex,
		AudioURL:       req.AudioURL,
		DurationMs:     req.DurationMs,
		CallControlID:  req.TargetCallControlID,
	})
	if err != nil {
		return nil, fmt.Errorf("queue injection: %w", err)
	}

	j := &job{rowID: rowID, req: req, done: make(chan jobResult, 1)}
	if err := q.enqueue(req.TargetCallControlID, j); err != nil {
		q.markFailed(j.rowID, err.Error())
		return nil, err
	}
	metrics.InjectionQueueDepth.Inc()
	defer metrics.InjectionQueueDepth.Dec()

	select {
	case r := <-j.done:
		return r.res, r.err
	case <-ctx.Done():
		// The lane still owns the job and will settle the row; the caller
		// just stops waiting.
		return nil, fmt.Errorf("injection wait: %w", ctx.Err())
	}
}

func (q *Queue) enqueue(key string, j *job) error {
	q.mu.Lock()
	l, ok := q.lanes[key]
	if !ok {
		l = &lane{q: q, key: key}
		q.lanes[key] = l
	}
	q.mu.Unlock()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("call leg %s is closed", key)
	}
	l.pending = append(l.pending, j)
	sort.SliceStable(l.pending, func(a, b int) bool {
		return l.pending[a].req.SegmentIndex < l.pending[b].req.SegmentIndex
	})
	started := false
	if !l.running {
		l.running = true
		started = true
	}
	l.mu.Unlock()

	if started {
		go l.run()
	}
	return nil
}

func (l *lane) run() {
	for {
		l.mu.Lock()
		if len(l.pending) == 0 || l.closed {
			l.running = false
			rest := l.pending
			l.pending = nil
			l.mu.Unlock()
			for _, j := range rest {
				l.q.settleFailure(j, fmt.Errorf("call leg %s closed before delivery", l.key))
			}
			return
		}
		j := l.pending[0]
		l.pending = l.pending[1:]
		l.mu.Unlock()

		l.q.deliver(l.key, j)
	}
}

// deliver runs one provider call, updates the row, and wakes the waiter.
func (q *Queue) deliver(key string, j *job) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	if err := q.store.MarkInjectionProcessing(ctx, j.rowID); err != nil {
		q.log.Warn().Err(err).Int64("row_id", j.rowID).Msg("failed to mark injection processing")
	}

	playbackID, err := q.provider.StartPlayback(ctx, key, j.req.AudioURL)
	if err != nil {
		q.settleFailure(j, fmt.Errorf("playback: %w", err))
		return
	}
	if playbackID == "" {
		playbackID = fmt.Sprintf("inj-%d", j.rowID)
	}

	q.markCompleted(j.rowID, playbackID)
	metrics.InjectionsTotal.WithLabelValues(database.InjectionCompleted).Inc()
	j.done <- jobResult{res: &translate.InjectionResult{InjectionID: playbackID}}
}

func (q *Queue) settleFailure(j *job, err error) {
	q.markFailed(j.rowID, err.Error())
	metrics.InjectionsTotal.WithLabelValues(database.InjectionFailed).Inc()
	j.done <- jobResult{err: err}
}

// markFailed and markCompleted use a fresh context so a delivery timeout
// cannot also lose the status write.
func (q *Queue) markFailed(rowID int64, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.store.MarkInjectionFailed(ctx, rowID, reason); err != nil {
		q.log.Warn().Err(err).Int64("row_id", rowID).Msg("failed to mark injection failed")
	}
}

func (q *Queue) markCompleted(rowID int64, injectionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.store.MarkInjectionCompleted(ctx, rowID, injectionID); err != nil {
		q.log.Warn().Err(err).Int64("row_id", rowID).Msg("failed to mark injection completed")
	}
}

// CloseLane tears down the lane for a call leg once the call ends. Pending
// deliveries are failed.
func (q *Queue) CloseLane(callControlID string) {
	q.mu.Lock()
	l, ok := q.lanes[callControlID]
	if ok {
		delete(q.lanes, callControlID)
	}
	q.mu.Unlock()
	if !ok {
		return
	}

	l.mu.Lock()
	l.closed = true
	rest := l.pending
	l.pending = nil
	running := l.running
	l.mu.Unlock()

	for _, j := range rest {
		q.settleFailure(j, fmt.Errorf("call leg %s closed before delivery", callControlID))
	}
	if running {
		q.log.Debug().Str("call_control_id", callControlID).Msg("lane closed with delivery in flight")
	}
}

// Lanes returns the number of active lanes.
func (q *Queue) Lanes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}

// Stop cancels in-flight deliveries and closes all lanes.
func (q *Queue) Stop() {
	q.cancel()
	q.mu.Lock()
	keys := make([]string, 0, len(q.lanes))
	for k := range q.lanes {
		keys = append(keys, k)
	}
	q.mu.Unlock()
	for _, k := range keys {
		q.CloseLane(k)
	}
}
