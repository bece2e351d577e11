package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	plugin_errors "conference-plugins/pkg/errors"
	"conference-plugins/pkg/logger"

	"go.uber.org/zap"
)

// settleTimeout bounds the queue writes that follow a handler run.
const settleTimeout = 10 * time.Second

type WorkerConfig struct {
	MaxRetries  int
	PollTimeout time.Duration
	Concurrency int
	// TaskTimeout bounds one handler run.
	TaskTimeout time.Duration
}

// Worker pops tasks and runs them through the registry.
type Worker struct {
	queue    *Queue
	registry *Registry
	cfg      WorkerConfig
	log      *logger.Logger
	wg       sync.WaitGroup
}

func NewWorker(queue *Queue, registry *Registry, cfg WorkerConfig, log *logger.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 2 * time.Minute
	}
	return &Worker{
		queue:    queue,
		registry: registry,
		cfg:      cfg,
		log:      logger.OrNop(log),
	}
}

// Run blocks until ctx is cancelled and all in-flight tasks finished.
func (w *Worker) Run(ctx context.Context) error {
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
	w.wg.Wait()
	return nil
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.ProcessNext(ctx); err != nil && ctx.Err() == nil {
			w.log.Error(ctx, "task queue poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessNext handles at most one task. It reports whether a task was taken
// from the queue. Task failures are not returned: they are logged and the
// task is retried or dead-lettered.
//
// Once popped, a task is no longer tied to ctx. It runs to completion, or
// until TaskTimeout, so a shutdown never leaves it outside every list.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)
	if errors.Is(err, plugin_errors.ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	detached := context.WithoutCancel(ctx)
	fields := []zap.Field{
		zap.String("task_id", task.ID),
		zap.String("task", task.Name),
		zap.Int("retries", task.Retries),
	}

	runCtx, cancelRun := context.WithTimeout(detached, w.cfg.TaskTimeout)
	runErr := w.registry.Execute(runCtx, task)
	cancelRun()

	ctx, cancel := context.WithTimeout(detached, settleTimeout)
	defer cancel()
	if runErr == nil {
		w.log.Info(ctx, "task succeeded", fields...)
		return true, nil
	}

	task.LastError = runErr.Error()
	fields = append(fields, zap.Error(runErr))

	task.Permanent = errors.Is(runErr, plugin_errors.ErrUnknownTask) || IsPermanent(runErr)
	if task.Permanent || task.Retries >= w.cfg.MaxRetries {
		w.log.Error(ctx, "task failed permanently, moving to dead letter", fields...)
		if err := w.queue.DeadLetter(ctx, task); err != nil {
			w.log.Error(ctx, "dead letter push failed", append(fields, zap.NamedError("dead_letter_error", err))...)
		}
		w.registry.GiveUp(ctx, task, runErr)
		return true, nil
	}

	task.Retries++
	w.log.Warn(ctx, "task failed, requeueing", fields...)
	if err := w.queue.Enqueue(ctx, task); err != nil {
		w.log.Error(ctx, "requeue failed", append(fields, zap.NamedError("requeue_error", err))...)
	}
	return true, nil
}
