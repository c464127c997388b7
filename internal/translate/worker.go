package translate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// QueueStats reports the current state of the segment queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// WorkerPoolOptions configures the segment worker pool.
type WorkerPoolOptions struct {
	Processor      *Processor
	Workers        int
	QueueSize      int
	SegmentTimeout time.Duration // upper bound for one segment's full pipeline run
	Log            zerolog.Logger
}

// WorkerPool fans segments out to worker goroutines. Each segment is an
// independent unit of work; segments from different calls never block each
// other, and a slow provider only occupies the worker handling it.
type WorkerPool struct {
	jobs   chan Segment
	proc   *Processor
	opts   WorkerPoolOptions
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a new segment worker pool.
func NewWorkerPool(opts WorkerPoolOptions) *WorkerPool {
	if opts.SegmentTimeout <= 0 {
		opts.SegmentTimeout = 45 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobs:   make(chan Segment, opts.QueueSize),
		proc:   opts.Processor,
		opts:   opts,
		log:    opts.Log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.opts.Workers).Int("queue_size", wp.opts.QueueSize).Msg("segment worker pool started")
}

// Stop signals workers to drain and waits for completion.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	wp.cancel()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("segment worker pool stopped")
}

// Enqueue adds a segment to the queue. Returns false if the queue is full.
func (wp *WorkerPool) Enqueue(seg Segment) bool {
	select {
	case wp.jobs <- seg:
		return true
	default:
		return false
	}
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(wp.jobs),
		Completed: wp.completed.Load(),
		Failed:    wp.failed.Load(),
	}
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.opts.Workers }

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for seg := range wp.jobs {
		ctx, cancel := context.WithTimeout(wp.ctx, wp.opts.SegmentTimeout)
		res := wp.proc.TranslateAndStore(ctx, seg)
		cancel()

		if res.Success {
			wp.completed.Add(1)
		} else {
			wp.failed.Add(1)
			log.Warn().
				Str("call_id", seg.CallID).
				Int("segment_index", seg.SegmentIndex).
				Str("error", res.Err).
				Msg("segment degraded")
		}
	}
}
