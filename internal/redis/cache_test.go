package redis

import (
	"context"
	"testing"
	"time"

	plugin_errors "conference-plugins/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStatusCacheSetGet(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewStatusCache(client)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "42", "pending", time.Hour))
	value, ok, err := cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pending", value)
	assert.True(t, mr.Exists("conversion:status:42"))

	mr.FastForward(time.Hour + time.Second)
	_, ok, err = cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListQueueFIFO(t *testing.T) {
	_, client := newTestClient(t)
	q := NewListQueue(client)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, "q", []byte("first")))
	require.NoError(t, q.Push(ctx, "q", []byte("second")))

	n, err := q.Len(ctx, "q")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.Pop(ctx, "q", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	got, err = q.Pop(ctx, "q", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestListQueuePopEmpty(t *testing.T) {
	_, client := newTestClient(t)
	q := NewListQueue(client)

	_, err := q.Pop(context.Background(), "empty", 100*time.Millisecond)
	assert.ErrorIs(t, err, plugin_errors.ErrQueueEmpty)
}

func TestListQueueTryPop(t *testing.T) {
	_, client := newTestClient(t)
	q := NewListQueue(client)
	ctx := context.Background()

	_, err := q.TryPop(ctx, "dead")
	assert.ErrorIs(t, err, plugin_errors.ErrQueueEmpty)

	for _, p := range []string{"a", "b"} {
		require.NoError(t, q.Push(ctx, "dead", []byte(p)))
	}
	got, err := q.TryPop(ctx, "dead")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))

	n, err := q.Len(ctx, "dead")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
