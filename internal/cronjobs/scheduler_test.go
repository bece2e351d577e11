package cronjobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"conference-plugins/internal/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	s := New(Config{Enabled: true}, nil)
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Register(Job{Name: "a", Schedule: "*/5 * * * *", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "a", Schedule: "@hourly", Run: noop}), "duplicate name")
	assert.Error(t, s.Register(Job{Name: "b", Schedule: "not a schedule", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "c", Run: noop}))
	assert.Error(t, s.Register(Job{Schedule: "@hourly", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "d", Schedule: "@hourly"}))

	jobs := s.Jobs()
	assert.Len(t, jobs, 1)
	assert.Contains(t, jobs, "a")
}

func TestRunNow(t *testing.T) {
	s := New(Config{Enabled: true}, nil)
	var runs int32
	require.NoError(t, s.Register(Job{Name: "count", Schedule: "@daily", Run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return errors.New("logged, not returned")
	}}))

	require.NoError(t, s.RunNow(context.Background(), "count"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&runs))
	assert.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestRunStopsOnCancel(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		s := New(Config{Enabled: enabled}, nil)
		require.NoError(t, s.Register(Job{Name: "x", Schedule: "@every 1h", Run: func(ctx context.Context) error { return nil }}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("scheduler (enabled=%v) did not stop", enabled)
		}
	}
}

type fakeQueue struct {
	stats   tasks.Stats
	result  tasks.RequeueResult
	err     error
	requeue int
}

func (f *fakeQueue) Stats(ctx context.Context) (tasks.Stats, error) {
	return f.stats, f.err
}

func (f *fakeQueue) RequeueDeadLetters(ctx context.Context) (tasks.RequeueResult, error) {
	f.requeue++
	return f.result, f.err
}

func TestQueueJobs(t *testing.T) {
	q := &fakeQueue{
		stats:  tasks.Stats{Pending: 3, DeadLetter: 1, Parked: 2},
		result: tasks.RequeueResult{Requeued: 1, Parked: 1},
	}

	report := QueueReport("*/15 * * * *", q, nil)
	assert.Equal(t, JobQueueReport, report.Name)
	assert.NoError(t, report.Run(context.Background()))

	retry := DeadLetterRetry("@hourly", q, nil)
	assert.Equal(t, JobDeadLetterRetry, retry.Name)
	assert.NoError(t, retry.Run(context.Background()))
	assert.Equal(t, 1, q.requeue)

	q.err = errors.New("redis down")
	assert.Error(t, report.Run(context.Background()))
	assert.Error(t, retry.Run(context.Background()))
}
