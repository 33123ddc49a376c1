package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned when a job is submitted after Wait or Shutdown
var ErrPoolClosed = errors.New("worker pool closed")

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// JobFunc adapts a function to the Job interface
type JobFunc func(ctx context.Context) Result

// Execute calls f(ctx)
func (f JobFunc) Execute(ctx context.Context) Result { return f(ctx) }

type slotJob struct {
	slot int
	job  Job
}

// Pool runs jobs on a fixed number of workers. Every submitted job owns a
// result slot, so Wait returns results in submission order regardless of
// completion order.
type Pool struct {
	workers    int
	jobQueue   chan slotJob
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu        sync.Mutex
	results   []Result
	closed    bool
	closeOnce sync.Once
}

// NewPool creates a new worker pool with the specified number of workers.
// Jobs observe ctx; cancelling it stops workers after their current job.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan slotJob, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case sj, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := sj.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[sj.slot] = result
			p.mu.Unlock()
		}
	}
}

// Submit queues a job and returns its result slot. It blocks while the
// queue is full.
func (p *Pool) Submit(job Job) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return -1, ErrPoolClosed
	}
	slot := len(p.results)
	p.results = append(p.results, nil)
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		p.mu.Lock()
		p.results[slot] = cancelled{err: p.ctx.Err()}
		p.mu.Unlock()
		return slot, p.ctx.Err()
	case p.jobQueue <- slotJob{slot: slot, job: job}:
		return slot, nil
	}
}

// Wait closes the queue, waits for every queued job and returns the results
// by slot. A slot whose job never ran holds a Result carrying the context
// error.
func (p *Pool) Wait() []Result {
	p.stopIntake()
	p.closeOnce.Do(func() { close(p.jobQueue) })
	p.wg.Wait()
	p.cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	for i, r := range p.results {
		if r == nil {
			p.results[i] = cancelled{err: err}
		}
	}
	return p.results
}

// Shutdown shuts down the worker pool immediately. Queued jobs that have
// not started are abandoned.
func (p *Pool) Shutdown() {
	p.stopIntake()
	p.cancelFunc()
	p.wg.Wait()
}

func (p *Pool) stopIntake() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

type cancelled struct{ err error }

func (c cancelled) GetError() error { return c.err }

// Run executes jobs on at most workers goroutines and returns their results
// in the order of jobs.
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	if len(jobs) == 0 {
		return []Result{}
	}
	pool := NewPool(ctx, workers)
	pool.Start()
	for _, job := range jobs {
		if _, err := pool.Submit(job); err != nil {
			break
		}
	}
	return pool.Wait()
}
