package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Processor runs a single claim workflow. Satisfied by Orchestrator.
type Processor interface {
	ProcessClaim(ctx context.Context, claimID uuid.UUID, opts ProcessOptions) (*WorkflowResult, error)
}

// BatchReport summarizes one drained batch.
type BatchReport struct {
	Submitted int               `json:"submitted"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// BatchSubmitter queues claim ids and drains them through the processor
// on a fixed interval, a bounded batch at a time.
type BatchSubmitter struct {
	processor Processor
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger

	mu    sync.Mutex
	queue []uuid.UUID

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewBatchSubmitter(processor Processor, interval time.Duration, batchSize int, logger zerolog.Logger) *BatchSubmitter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &BatchSubmitter{
		processor: processor,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// SubmitBatch enqueues claim ids for background processing and returns
// the resulting queue depth.
func (b *BatchSubmitter) SubmitBatch(ids []uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, ids...)
	return len(b.queue)
}

// Pending returns the current queue depth.
func (b *BatchSubmitter) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Start runs the drain loop until Stop is called or ctx is done.
func (b *BatchSubmitter) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stop:
				return
			case <-ticker.C:
				b.drain(ctx)
			}
		}
	}()
}

// Stop halts the drain loop and waits for it to exit. Queued ids that
// have not been drained stay in the queue.
func (b *BatchSubmitter) Stop() {
	b.once.Do(func() { close(b.stop) })
	<-b.done
}

// drain takes up to batchSize ids off the queue and processes them
// sequentially.
func (b *BatchSubmitter) drain(ctx context.Context) {
	b.mu.Lock()
	n := len(b.queue)
	if n == 0 {
		b.mu.Unlock()
		return
	}
	if n > b.batchSize {
		n = b.batchSize
	}
	batch := make([]uuid.UUID, n)
	copy(batch, b.queue[:n])
	b.queue = b.queue[n:]
	b.mu.Unlock()

	report := BatchReport{Submitted: n, Failures: make(map[string]string)}
	for _, id := range batch {
		if ctx.Err() != nil {
			return
		}
		if _, err := b.processor.ProcessClaim(ctx, id, ProcessOptions{Initiator: "batch"}); err != nil {
			report.Failed++
			report.Failures[id.String()] = err.Error()
			continue
		}
		report.Succeeded++
	}

	evt := b.logger.Info()
	if report.Failed > 0 {
		evt = b.logger.Warn().Interface("failures", report.Failures)
	}
	evt.Int("submitted", report.Submitted).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("batch drained")
}
