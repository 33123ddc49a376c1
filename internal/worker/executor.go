package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrExecutorClosed is returned by Submit after Close or Shutdown
var ErrExecutorClosed = errors.New("executor closed")

// Handler processes one queued item. ack is the id Submit returned for it.
type Handler[T any] func(ctx context.Context, ack string, item T)

type queued[T any] struct {
	ack  string
	item T
}

// Executor is a request queue in front of a fixed set of workers.
// Submit acknowledges an item as soon as it is queued; the handler runs later.
type Executor[T any] struct {
	handle     Handler[T]
	queue      chan queued[T]
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewExecutor starts workers goroutines draining a queue of depth items
func NewExecutor[T any](ctx context.Context, workers, depth int, handle Handler[T], logger *slog.Logger) *Executor[T] {
	if workers <= 0 {
		workers = 1
	}
	if depth < workers {
		depth = workers * 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	e := &Executor[T]{
		handle:     handle,
		queue:      make(chan queued[T], depth),
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger,
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	return e
}

func (e *Executor[T]) worker(id int) {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case q, ok := <-e.queue:
			if !ok {
				return
			}
			e.logger.Debug("executor.job.start", "ack", q.ack, "worker", id)
			e.handle(e.ctx, q.ack, q.item)
		}
	}
}

// Submit queues item and returns its acknowledgement id. It blocks only while
// the queue is full, until ctx is done.
func (e *Executor[T]) Submit(ctx context.Context, item T) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return "", ErrExecutorClosed
	}

	ack := uuid.NewString()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-e.ctx.Done():
		return "", ErrExecutorClosed
	case e.queue <- queued[T]{ack: ack, item: item}:
		e.logger.Debug("executor.job.queued", "ack", ack)
		return ack, nil
	}
}

// Close stops intake and waits until every queued item has been handled
func (e *Executor[T]) Close() {
	e.stop()
	e.wg.Wait()
	e.cancelFunc()
}

// Shutdown stops intake and abandons queued items that have not started
func (e *Executor[T]) Shutdown() {
	e.cancelFunc()
	e.stop()
	e.wg.Wait()
}

func (e *Executor[T]) stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
}
