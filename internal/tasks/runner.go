package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Func is one unit of background work.
type Func func(ctx context.Context) error

type item struct {
	taskID   string
	taskType string
	ownerID  string
	fn       Func
}

// RunnerConfig configures the worker pool.
type RunnerConfig struct {
	Workers   int // default 2
	QueueSize int // default 64
}

// Runner executes submitted tasks on a fixed worker pool. All workers pull
// from one shared queue. Submitted tasks run detached from the submitting
// request: they use the runner's lifecycle context and are not cancellable
// individually once queued.
type Runner struct {
	manager *Manager
	queue   chan item
	workers int
	logger  *slog.Logger

	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner creates a task runner.
func NewRunner(manager *Manager, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Runner{
		manager: manager,
		queue:   make(chan item, queueSize),
		workers: workers,
		logger:  logger.With("component", "tasks"),
	}
}

// Start launches the worker goroutines. Workers drain the queue until ctx is
// cancelled. Safe to call once; later calls are no-ops.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		for i := 0; i < r.workers; i++ {
			r.wg.Add(1)
			go r.worker(ctx, i)
		}
		r.logger.Info("task runner started", "workers", r.workers)
	})
}

// Wait blocks until all workers have exited after their context is cancelled.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Submit persists a queued Task record and enqueues the work. The call never
// blocks: a full queue fails the submission immediately and the record is
// marked failed. Execution errors are recorded and logged, never returned.
func (r *Runner) Submit(ctx context.Context, taskType, ownerID string, fn Func) (string, error) {
	taskID, err := r.manager.CreateRecord(ctx, taskType, ownerID)
	if err != nil {
		return "", err
	}

	select {
	case r.queue <- item{taskID: taskID, taskType: taskType, ownerID: ownerID, fn: fn}:
		r.logger.Debug("task queued", "task", taskID, "type", taskType, "owner", ownerID)
		return taskID, nil
	default:
		queueErr := fmt.Errorf("task queue full")
		if markErr := r.manager.MarkFailed(ctx, taskID, queueErr); markErr != nil {
			r.logger.Error("failed to mark task failed", "task", taskID, "error", markErr)
		}
		return "", queueErr
	}
}

func (r *Runner) worker(ctx context.Context, n int) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-r.queue:
			r.run(ctx, it)
		}
	}
}

func (r *Runner) run(ctx context.Context, it item) {
	if err := r.manager.MarkRunning(ctx, it.taskID); err != nil {
		r.logger.Warn("failed to mark task running", "task", it.taskID, "error", err)
	}

	start := time.Now()
	err := it.fn(ctx)
	elapsed := time.Since(start)

	// Status writes use a fresh context so a shutting-down runner can still
	// record the outcome of work it already started.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err != nil {
		r.logger.Warn("task failed",
			"task", it.taskID, "type", it.taskType, "owner", it.ownerID,
			"duration", elapsed, "error", err)
		if markErr := r.manager.MarkFailed(recordCtx, it.taskID, err); markErr != nil {
			r.logger.Error("failed to mark task failed", "task", it.taskID, "error", markErr)
		}
		return
	}

	r.logger.Info("task completed",
		"task", it.taskID, "type", it.taskType, "owner", it.ownerID, "duration", elapsed)
	if markErr := r.manager.MarkCompleted(recordCtx, it.taskID); markErr != nil {
		r.logger.Error("failed to mark task completed", "task", it.taskID, "error", markErr)
	}
}
