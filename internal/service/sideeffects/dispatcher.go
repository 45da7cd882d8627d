// Package sideeffects runs best-effort actions outside the request path.
// A scheduled task runs to completion or failure on its own: it gets its own
// timeout, is never cancelled by the request that scheduled it, and its
// failure never propagates back to the already-committed work
package sideeffects

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nkiryanov/mixtape/internal/apperrors"
	"github.com/nkiryanov/mixtape/internal/logger"
)

const (
	defaultCountWorkers = 4
	defaultQueueSize    = 64
	defaultTaskTimeout  = 30 * time.Second
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Dispatcher struct {
	countWorkers int
	taskTimeout  time.Duration

	tasks   chan Task
	stopped atomic.Bool
	logger  logger.Logger
}

func NewDispatcher(l logger.Logger) *Dispatcher {
	return &Dispatcher{
		countWorkers: defaultCountWorkers,
		taskTimeout:  defaultTaskTimeout,
		tasks:        make(chan Task, defaultQueueSize),
		logger:       l,
	}
}

// Start runs the workers until ctx is cancelled
// Returns a channel closed when accepted tasks are drained and workers stopped
func (d *Dispatcher) Start(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	d.logger.Debug("Starting side effect dispatcher", "workers", d.countWorkers)

	// Stop accepting new tasks as soon as shutdown begins
	go func() {
		<-ctx.Done()
		d.stopped.Store(true)
	}()

	var wg sync.WaitGroup
	for i := 0; i < d.countWorkers; i++ {
		wg.Add(1)
		go func() {
			d.worker(ctx)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		d.logger.Debug("Side effect dispatcher stopped")
	}()

	return idleStopped
}

// Schedule queues fn without blocking the caller
// Returns an error only when the queue is full or the dispatcher is stopped,
// callers treat that the same way as a failed task: log and move on
func (d *Dispatcher) Schedule(name string, fn func(ctx context.Context) error) error {
	if d.stopped.Load() {
		return apperrors.ErrDispatcherStopped
	}

	select {
	case d.tasks <- Task{Name: name, Run: fn}:
		return nil
	default:
		return apperrors.ErrDispatcherFull
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Drain tasks accepted before shutdown, then stop
			for {
				select {
				case task := <-d.tasks:
					d.run(task)
				default:
					return
				}
			}

		case task := <-d.tasks:
			d.run(task)
		}
	}
}

func (d *Dispatcher) run(task Task) {
	// Detached from the scheduling request on purpose:
	// cancellation must not propagate into an already-committed side effect
	ctx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
	defer cancel()

	start := time.Now()
	err := task.Run(ctx)
	if err != nil {
		d.logger.Error("Side effect failed", "task", task.Name, "duration", time.Since(start), "error", err)
		return
	}

	d.logger.Debug("Side effect done", "task", task.Name, "duration", time.Since(start))
}
