// Package store owns the Redis connection pool every other module draws on.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Config bounds the connection pool. Short operations borrow and return a
// connection per call; each live forwarder holds one exclusively, so PoolSize
// also caps the number of concurrently connected participants.
type Config struct {
	Addr            string
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	DialTimeout     time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            "localhost:6379",
		PoolSize:        64,
		MinIdleConns:    4,
		PoolTimeout:     5 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
	}
}

// Module provides the shared Redis client as a mono module.
type Module struct {
	cfg    Config
	client *redis.Client
}

var _ mono.Module = (*Module)(nil)

// NewModule creates the store module.
func NewModule(cfg Config) *Module {
	return &Module{cfg: cfg}
}

// Name returns the module name.
func (m *Module) Name() string { return "store" }

// Init connects the Redis client and verifies the server is reachable.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:            m.cfg.Addr,
		PoolSize:        m.cfg.PoolSize,
		MinIdleConns:    m.cfg.MinIdleConns,
		PoolTimeout:     m.cfg.PoolTimeout,
		ConnMaxIdleTime: m.cfg.ConnMaxIdleTime,
		DialTimeout:     m.cfg.DialTimeout,
	})

	if err := m.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.cfg.Addr, err)
	}

	slog.Info("Connected to Redis", "addr", m.cfg.Addr, "poolSize", m.cfg.PoolSize)
	return nil
}

// Start is a no-op; the client is ready after Init.
func (m *Module) Start(_ context.Context) error { return nil }

// Stop closes the Redis client and its pool.
func (m *Module) Stop(_ context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	slog.Info("Redis client closed")
	return nil
}

// Client returns the pooled client for borrow-per-call operations.
func (m *Module) Client() *redis.Client { return m.client }

// Dedicated takes one connection out of the pool for exclusive use. A
// forwarder's blocking stream read cannot share a connection with other
// callers; the caller must Close the connection to return it.
func (m *Module) Dedicated() *redis.Conn { return m.client.Conn() }
