// Package parallel runs independent search jobs on a bounded set of
// goroutines. A solver and its state manager are single-threaded, so every
// job builds and owns its own model; nothing is shared between workers.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/gitrdm/gokancp/pkg/search"
)

// WorkerPool manages a fixed set of goroutines pulling tasks from a
// buffered channel. Submit blocks when the buffer is full.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once

	// mu guards closed and the send side of taskChan. Submit holds the
	// read lock across its send so Shutdown cannot close taskChan under it.
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool with maxWorkers goroutines. If maxWorkers is
// 0 or negative, it defaults to the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}
	return pool
}

// Workers reports the number of goroutines serving the pool.
func (wp *WorkerPool) Workers() int { return wp.maxWorkers }

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()

	// taskChan is closed only after the last accepted send, so ranging
	// runs every accepted task.
	for task := range wp.taskChan {
		if task != nil {
			task()
		}
	}
}

// Submit queues task for execution. It blocks until the task is accepted,
// ctx is done, or the pool is shut down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolShutdown
	}
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops accepting tasks and waits for accepted ones to finish.
// Submits blocked on a full buffer return ErrPoolShutdown. It is safe to
// call more than once.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskChan)
		wp.mu.Unlock()
		wp.workerWg.Wait()
	})
}

// ErrPoolShutdown is returned when submitting to a pool that was shut down.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")

// Job is one independent search. Run must build its own solver.
type Job struct {
	Name string
	Run  func(ctx context.Context) (search.Statistics, error)
}

// Result pairs a job with the outcome of its run.
type Result struct {
	Name  string
	Stats search.Statistics
	Err   error
}

// RunAll runs jobs on a pool of maxWorkers goroutines and returns their
// results in job order. Jobs that could not be submitted before ctx was
// done report the submission error.
func RunAll(ctx context.Context, maxWorkers int, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	if maxWorkers <= 0 || maxWorkers > len(jobs) {
		maxWorkers = min(len(jobs), runtime.NumCPU())
	}

	pool := NewWorkerPool(maxWorkers)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	for i, job := range jobs {
		results[i].Name = job.Name
		wg.Add(1)
		err := pool.Submit(ctx, func() {
			defer wg.Done()
			results[i].Stats, results[i].Err = job.Run(ctx)
		})
		if err != nil {
			wg.Done()
			results[i].Err = err
		}
	}
	wg.Wait()
	return results
}
