package redis

import (
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Workers is the number of task workers sharing the client. Each one
	// holds a connection while it blocks on the queue.
	Workers int
}

// minPoolSize leaves room for the cache, rate limiter and cron jobs next to
// the blocked workers.
const minPoolSize = 10

func (c Config) Options() *redis.Options {
	return &redis.Options{
		Addr:        net.JoinHostPort(c.Host, c.Port),
		Password:    c.Password,
		DB:          c.DB,
		PoolSize:    minPoolSize + max(c.Workers, 0),
		DialTimeout: 5 * time.Second,
	}
}

// NewClient creates the client shared by the status cache, the task queue
// and the rate limiter.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(cfg.Options())
}
