package rating

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"usof/internal/models"
	"usof/internal/observability"

	"github.com/cenkalti/backoff/v5"
)

// Scheduler triggers rating recomputes after a vote has committed. Failures
// are logged and never reach the caller.
type Scheduler interface {
	Schedule(ctx context.Context, userID uint, kind models.EntityType)
}

// Inline recomputes synchronously in the caller's goroutine.
type Inline struct {
	engine Recomputer
}

// NewInline returns a scheduler that recomputes immediately.
func NewInline(engine Recomputer) *Inline {
	return &Inline{engine: engine}
}

// Schedule recomputes now and logs a failure.
func (s *Inline) Schedule(ctx context.Context, userID uint, kind models.EntityType) {
	if _, err := s.engine.Recompute(ctx, userID, kind); err != nil {
		logFailure(ctx, userID, kind, err)
	}
}

func logFailure(ctx context.Context, userID uint, kind models.EntityType, err error) {
	observability.GlobalLogger.WarnContext(ctx, "rating recompute failed",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
}

type job struct {
	userID uint
	kind   models.EntityType
}

// Queue recomputes in a background worker. A (user, kind) pair that is
// already waiting is not queued twice; failures are retried with
// exponential backoff.
type Queue struct {
	engine  Recomputer
	jobs    chan job
	retries []backoff.RetryOption

	mu      sync.Mutex
	pending map[job]struct{}
	closed  bool

	done chan struct{}
}

// QueueOption customises a Queue.
type QueueOption func(*Queue)

// WithRetry replaces the default retry policy.
func WithRetry(opts ...backoff.RetryOption) QueueOption {
	return func(q *Queue) { q.retries = opts }
}

// NewQueue starts a worker with a buffer of size pending jobs.
func NewQueue(engine Recomputer, size int, opts ...QueueOption) *Queue {
	if size <= 0 {
		size = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	q := &Queue{
		engine: engine,
		jobs:   make(chan job, size),
		retries: []backoff.RetryOption{
			backoff.WithBackOff(b),
			backoff.WithMaxTries(5),
			backoff.WithMaxElapsedTime(30 * time.Second),
		},
		pending: make(map[job]struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	go q.run()
	return q
}

// Schedule enqueues a recompute. When the queue is full or closed the
// recompute runs inline so that no vote is left unrated.
func (q *Queue) Schedule(ctx context.Context, userID uint, kind models.EntityType) {
	j := job{userID: userID, kind: kind}

	q.mu.Lock()
	if _, queued := q.pending[j]; queued {
		q.mu.Unlock()
		return
	}
	if !q.closed {
		select {
		case q.jobs <- j:
			q.pending[j] = struct{}{}
			observability.RatingQueueDepth.Inc()
			q.mu.Unlock()
			return
		default:
		}
	}
	q.mu.Unlock()

	if _, err := q.engine.Recompute(ctx, userID, kind); err != nil {
		logFailure(ctx, userID, kind, err)
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for j := range q.jobs {
		q.mu.Lock()
		delete(q.pending, j)
		q.mu.Unlock()
		observability.RatingQueueDepth.Dec()

		q.process(j)
	}
}

func (q *Queue) process(j job) {
	ctx := observability.WithCorrelationID(context.Background(), observability.GenerateCorrelationID())
	fields := map[string]interface{}{"user_id": j.userID, "kind": string(j.kind)}
	observability.LogAsyncOperationStart(ctx, "rating_recompute", fields)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		_, err := q.engine.Recompute(ctx, j.userID, j.kind)
		if err != nil && !errors.Is(err, context.Canceled) && models.ErrorCode(err) != models.CodeInternal {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, q.retries...)
	if err != nil {
		observability.LogAsyncOperationError(ctx, "rating_recompute", err, fields)
		return
	}
	observability.LogAsyncOperationEnd(ctx, "rating_recompute", fields)
}

// Close stops accepting work and waits for queued recomputes to finish or
// for ctx to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
