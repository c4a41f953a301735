package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionInfoDefaults(t *testing.T) {
	got := ConnectionInfo{Addr: "127.0.0.1:6379"}.withDefaults()

	assert.Equal(t, defaultPoolSize, got.PoolSize)
	assert.Equal(t, defaultMinIdleConns, got.MinIdleConns)
	assert.Equal(t, 5*time.Second, got.Timeout)
}

func TestConnectionInfoKeepsExplicitSizing(t *testing.T) {
	got := ConnectionInfo{
		Addr:         "127.0.0.1:6379",
		PoolSize:     32,
		MinIdleConns: 8,
		Timeout:      time.Second,
	}.withDefaults()

	assert.Equal(t, 32, got.PoolSize)
	assert.Equal(t, 8, got.MinIdleConns)
	assert.Equal(t, time.Second, got.Timeout)
}
