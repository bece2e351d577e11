package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	plugin_errors "conference-plugins/pkg/errors"
)

// Backend is the list storage the queue runs on.
type Backend interface {
	Push(ctx context.Context, queue string, payload []byte) error
	Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
	// TryPop returns the oldest payload without waiting, or ErrQueueEmpty.
	TryPop(ctx context.Context, queue string) ([]byte, error)
	Len(ctx context.Context, queue string) (int64, error)
}

type QueueConfig struct {
	Name       string
	DeadLetter string
	// Parked holds dead letters that will not be requeued again.
	Parked      string
	MaxRequeues int
}

type Queue struct {
	backend Backend
	cfg     QueueConfig
}

func NewQueue(backend Backend, cfg QueueConfig) *Queue {
	if cfg.Parked == "" {
		cfg.Parked = cfg.DeadLetter + ":parked"
	}
	if cfg.MaxRequeues < 0 {
		cfg.MaxRequeues = 0
	}
	return &Queue{backend: backend, cfg: cfg}
}

// Enqueue appends task to the queue. It never waits for execution.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	return q.push(ctx, q.cfg.Name, task)
}

// Dequeue waits up to timeout for the next task.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (Task, error) {
	payload, err := q.backend.Pop(ctx, q.cfg.Name, timeout)
	if err != nil {
		return Task{}, err
	}
	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return Task{}, fmt.Errorf("unmarshal task: %w", err)
	}
	return task, nil
}

func (q *Queue) DeadLetter(ctx context.Context, task Task) error {
	return q.push(ctx, q.cfg.DeadLetter, task)
}

func (q *Queue) push(ctx context.Context, list string, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}
	return q.backend.Push(ctx, list, payload)
}

type RequeueResult struct {
	Requeued int64 `json:"requeued"`
	Parked   int64 `json:"parked"`
}

// RequeueDeadLetters gives every dead-lettered task one more attempt. Retry
// counters are kept, so a task that keeps failing goes straight back to the
// dead-letter list. Permanent failures, undecodable payloads and tasks that
// were already requeued MaxRequeues times are moved to the parked list
// instead, where they stay until someone looks at them.
func (q *Queue) RequeueDeadLetters(ctx context.Context) (RequeueResult, error) {
	var res RequeueResult
	n, err := q.backend.Len(ctx, q.cfg.DeadLetter)
	if err != nil {
		return res, err
	}
	// Only what is there now; tasks failing during the sweep wait for the next one.
	for i := int64(0); i < n; i++ {
		payload, err := q.backend.TryPop(ctx, q.cfg.DeadLetter)
		if errors.Is(err, plugin_errors.ErrQueueEmpty) {
			return res, nil
		}
		if err != nil {
			return res, err
		}

		var task Task
		if err := json.Unmarshal(payload, &task); err != nil {
			if err := q.restore(ctx, q.cfg.Parked, payload); err != nil {
				return res, err
			}
			res.Parked++
			continue
		}

		if task.Permanent || task.Requeues >= q.cfg.MaxRequeues {
			if err := q.restore(ctx, q.cfg.Parked, payload); err != nil {
				return res, err
			}
			res.Parked++
			continue
		}

		task.Requeues++
		if err := q.push(ctx, q.cfg.Name, task); err != nil {
			if rerr := q.restore(ctx, q.cfg.DeadLetter, payload); rerr != nil {
				return res, errors.Join(err, rerr)
			}
			return res, err
		}
		res.Requeued++
	}
	return res, nil
}

func (q *Queue) restore(ctx context.Context, list string, payload []byte) error {
	if err := q.backend.Push(ctx, list, payload); err != nil {
		return fmt.Errorf("move dead letter to %s: %w", list, err)
	}
	return nil
}

type Stats struct {
	Pending    int64 `json:"pending"`
	DeadLetter int64 `json:"dead_letter"`
	Parked     int64 `json:"parked"`
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	pending, err := q.backend.Len(ctx, q.cfg.Name)
	if err != nil {
		return Stats{}, err
	}
	dead, err := q.backend.Len(ctx, q.cfg.DeadLetter)
	if err != nil {
		return Stats{}, err
	}
	parked, err := q.backend.Len(ctx, q.cfg.Parked)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Pending: pending, DeadLetter: dead, Parked: parked}, nil
}
