// Package tasks is a small asynchronous job queue on top of Redis lists.
// Producers enqueue named tasks; a Worker pops them and runs the handler
// registered for the name, retrying failures up to a limit before parking
// the task on a dead-letter list.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	plugin_errors "conference-plugins/pkg/errors"

	"github.com/google/uuid"
)

// Task is the envelope stored on the queue.
type Task struct {
	ID         string          `json:"id"`
	Name       string          `json:"task"`
	Args       json.RawMessage `json:"args"`
	Retries    int             `json:"retries"`
	Requeues   int             `json:"requeues"`
	Permanent  bool            `json:"permanent,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

// NewTask builds a task with a fresh id and args marshalled from args.
func NewTask(name string, args interface{}) (Task, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Task{}, fmt.Errorf("marshal %s args: %w", name, err)
	}
	return Task{
		ID:         uuid.New().String(),
		Name:       name,
		Args:       raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The worker dead-letters the
// task right away and it is never requeued.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Handler executes one task. A returned error makes the worker retry.
type Handler interface {
	Handle(ctx context.Context, task Task) error
}

// GiveUpHandler is implemented by handlers that need to react once their
// task is dead-lettered.
type GiveUpHandler interface {
	OnGiveUp(ctx context.Context, task Task, cause error)
}

type HandlerFunc func(ctx context.Context, task Task) error

func (f HandlerFunc) Handle(ctx context.Context, task Task) error { return f(ctx, task) }

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	r.handlers[name] = handler
	r.mu.Unlock()
}

func (r *Registry) Execute(ctx context.Context, task Task) error {
	r.mu.RLock()
	h, ok := r.handlers[task.Name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", plugin_errors.ErrUnknownTask, task.Name)
	}
	return h.Handle(ctx, task)
}

// GiveUp notifies the handler of task, if it cares, that the task will not
// be retried.
func (r *Registry) GiveUp(ctx context.Context, task Task, cause error) {
	r.mu.RLock()
	h, ok := r.handlers[task.Name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if g, ok := h.(GiveUpHandler); ok {
		g.OnGiveUp(ctx, task, cause)
	}
}
