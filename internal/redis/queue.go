package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	plugin_errors "conference-plugins/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
)

// ListQueue is a FIFO of opaque payloads on Redis lists: LPUSH to enqueue,
// BRPOP to dequeue.
type ListQueue struct {
	client *goredis.Client
}

func NewListQueue(client *goredis.Client) *ListQueue {
	return &ListQueue{client: client}
}

func (q *ListQueue) Push(ctx context.Context, queue string, payload []byte) error {
	if err := q.client.LPush(ctx, queue, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH %s: %w", queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the oldest payload of queue. It returns
// ErrQueueEmpty when nothing arrived in time.
func (q *ListQueue) Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BRPop(ctx, timeout, queue).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, plugin_errors.ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis BRPOP %s: %w", queue, err)
	}
	// BRPOP replies with [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("redis BRPOP %s: unexpected reply of %d elements", queue, len(res))
	}
	return []byte(res[1]), nil
}

func (q *ListQueue) Len(ctx context.Context, queue string) (int64, error) {
	return q.client.LLen(ctx, queue).Result()
}

// TryPop returns the oldest payload of queue without blocking.
func (q *ListQueue) TryPop(ctx context.Context, queue string) ([]byte, error) {
	res, err := q.client.RPop(ctx, queue).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, plugin_errors.ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis RPOP %s: %w", queue, err)
	}
	return res, nil
}
