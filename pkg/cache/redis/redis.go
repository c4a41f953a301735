package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Pool defaults sized for this service's two redis workloads: the hot
// per-client summary cache and bursty export status writes.
const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
)

type ConnectionInfo struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	Timeout      time.Duration
	PoolSize     int
	MinIdleConns int
}

func (info ConnectionInfo) withDefaults() ConnectionInfo {
	if info.PoolSize <= 0 {
		info.PoolSize = defaultPoolSize
	}
	if info.MinIdleConns <= 0 {
		info.MinIdleConns = defaultMinIdleConns
	}
	if info.Timeout <= 0 {
		info.Timeout = 5 * time.Second
	}
	return info
}

type Client = goredis.Client

func NewRedisConnection(info ConnectionInfo) (*Client, error) {
	info = info.withDefaults()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         info.Addr,
		Password:     info.Password,
		DB:           info.DB,
		MaxRetries:   info.MaxRetries,
		DialTimeout:  info.DialTimeout,
		ReadTimeout:  info.Timeout,
		WriteTimeout: info.Timeout,
		PoolSize:     info.PoolSize,
		MinIdleConns: info.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), info.Timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}
