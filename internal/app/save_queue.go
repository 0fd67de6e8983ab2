package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"property-evaluation-service/internal/domain"
)

// ResultSaver durably persists completed evaluations (Postgres, in-memory, etc).
type ResultSaver interface {
	SaveEvaluation(ctx context.Context, record domain.EvaluationRecord) error
}

// Dispatcher hands a completed evaluation to the durable-save side channel. done is called
// exactly once with the outcome, possibly from another goroutine. Dispatch must not block.
type Dispatcher interface {
	Dispatch(record domain.EvaluationRecord, done func(error))
}

type saveJob struct {
	record domain.EvaluationRecord
	done   func(error)
}

// SaveQueue runs durable saves on a fixed pool of workers.
type SaveQueue struct {
	saver   ResultSaver
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan saveJob
	group  *errgroup.Group
}

func NewSaveQueue(saver ResultSaver, size, workers int, timeout time.Duration, logger *zap.Logger) *SaveQueue {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaveQueue{
		saver:   saver,
		workers: workers,
		timeout: timeout,
		logger:  logger,
		jobs:    make(chan saveJob, size),
	}
}

// Start launches the workers. Saves run with a context derived from ctx.
func (q *SaveQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.group != nil {
		return
	}
	q.group = &errgroup.Group{}
	for i := 0; i < q.workers; i++ {
		q.group.Go(func() error {
			for job := range q.jobs {
				job.done(q.save(ctx, job.record))
			}
			return nil
		})
	}
}

func (q *SaveQueue) save(ctx context.Context, record domain.EvaluationRecord) error {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	return q.saver.SaveEvaluation(ctx, record)
}

// Dispatch enqueues a save. A full or closed queue reports the failure through done.
func (q *SaveQueue) Dispatch(record domain.EvaluationRecord, done func(error)) {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		done(domain.ErrSaveQueueClosed)
		return
	}
	select {
	case q.jobs <- saveJob{record: record, done: done}:
		q.mu.RUnlock()
	default:
		q.mu.RUnlock()
		q.logger.Warn("save queue full, dropping evaluation", zap.String("evaluationId", record.ID))
		done(domain.ErrSaveQueueFull)
	}
}

// Close stops accepting saves and waits for queued ones to finish. Jobs queued on a queue that
// was never started fail with ErrSaveQueueClosed.
func (q *SaveQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	group := q.group
	q.mu.Unlock()

	if group == nil {
		// never started: nothing will save the queued jobs
		for job := range q.jobs {
			job.done(domain.ErrSaveQueueClosed)
		}
		return nil
	}
	return group.Wait()
}
