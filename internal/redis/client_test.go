package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigOptions(t *testing.T) {
	opts := Config{Host: "redis", Port: "6380", DB: 2, Workers: 4}.Options()
	assert.Equal(t, "redis:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, minPoolSize+4, opts.PoolSize)

	assert.Equal(t, "[::1]:6379", Config{Host: "::1", Port: "6379"}.Options().Addr)
	assert.Equal(t, minPoolSize, Config{Workers: -1}.Options().PoolSize)
}

func TestNewClientConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()

	client := NewClient(Config{Host: host, Port: port})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
}
