// Package worker scores batches of employee-days on a pool of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/healthrix/internal/adapters/mq/queue"
	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/scoring"
	"github.com/okian/healthrix/pkg/logger"
	"github.com/okian/healthrix/pkg/metrics"
)

// Scorer computes one employee-day. The scoring engine satisfies it.
type Scorer interface {
	CalculateEmployee(ctx context.Context, employeeID, date string) (model.PerformanceScore, bool, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result is the outcome of one job.
type Result struct {
	Job   queue.Job
	Score model.PerformanceScore
	OK    bool
	Err   error
}

// InMemoryWorker pulls jobs off a queue and hands each result to a callback.
type InMemoryWorker struct {
	queue  Queue
	scorer Scorer
	handle func(Result)
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker. handle is called from the worker's
// goroutine once per job.
func NewInMemoryWorker(q Queue, scorer Scorer, handle func(Result), opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		handle:   handle,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the queue drains, ctx is cancelled or Shutdown
// is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.handle(w.process(ctx, job))
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) Result {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	score, ok, err := w.scorer.CalculateEmployee(ctx, job.EmployeeID, job.Date)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "scoring_error")
		w.logger.Error(ctx, "scoring failed",
			logger.String("emp_id", job.EmployeeID),
			logger.String("date", job.Date),
			logger.Error(err),
		)
		return Result{Job: job, Err: fmt.Errorf("score %s on %s: %w", job.EmployeeID, job.Date, err)}
	}
	return Result{Job: job, Score: score, OK: ok}
}

// Pool scores a batch of jobs with a fixed number of workers.
type Pool struct {
	size   int
	scorer Scorer
	logger logger.Logger
}

// NewPool creates a pool. A non-positive size uses one worker per CPU.
func NewPool(size int, scorer Scorer, opts ...PoolOption) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{size: size, scorer: scorer, logger: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers a Run starts.
func (p *Pool) Size() int { return p.size }

// Run scores every job and returns the scores, best first. Equal scores
// keep job order, so the output does not depend on worker interleaving.
// Jobs without a score are dropped. Any scoring failure fails the batch.
func (p *Pool) Run(ctx context.Context, jobs []queue.Job) ([]model.PerformanceScore, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(jobs)))
	for i, j := range jobs {
		j.Seq = i
		if !q.Enqueue(ctx, j) {
			_ = q.Close()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("enqueue job %d: %w", i, queue.ErrQueueFull)
		}
	}
	_ = q.Close()

	results := make([]Result, len(jobs))
	workers := min(p.size, len(jobs))
	metrics.UpdateWorkerCount(workers)
	defer metrics.UpdateWorkerCount(0)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		w := NewInMemoryWorker(q, p.scorer,
			func(r Result) { results[r.Job.Seq] = r },
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}

	var errs []error
	scores := make([]model.PerformanceScore, 0, len(jobs))
	for _, r := range results {
		switch {
		case r.Err != nil:
			errs = append(errs, r.Err)
		case r.OK:
			scores = append(scores, r.Score)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	scoring.SortByFinal(scores)
	p.logger.Debug(ctx, "batch scored",
		logger.Int("jobs", len(jobs)),
		logger.Int("scores", len(scores)),
		logger.Int("workers", workers),
	)
	return scores, nil
}
