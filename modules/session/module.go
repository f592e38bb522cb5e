// Package session enforces the room occupancy protocol: at most one host
// (the owner) and one guest, each linked to exactly one current connection.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"

	"github.com/silverlyra/portico/internal/ids"
	"github.com/silverlyra/portico/modules/registry"
	"github.com/silverlyra/portico/modules/store"
)

// Config holds session retention and contention bounds.
type Config struct {
	ConnectionTTL time.Duration
	// CreateRetries bounds how often a join re-runs its transaction after
	// losing an optimistic race before surfacing Conflict.
	CreateRetries int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		ConnectionTTL: 30 * time.Minute,
		CreateRetries: 3,
	}
}

// Module issues and retires per-connection session records.
type Module struct {
	cfg      Config
	store    *store.Module
	registry *registry.Module
	ids      ids.Source
}

var _ mono.Module = (*Module)(nil)

// NewModule creates the session module.
func NewModule(cfg Config, st *store.Module, reg *registry.Module, src ids.Source) *Module {
	return &Module{cfg: cfg, store: st, registry: reg, ids: src}
}

// Name returns the module name.
func (m *Module) Name() string { return "session" }

// Start logs the connection retention window.
func (m *Module) Start(_ context.Context) error {
	slog.Info("Session manager started", "connectionTTL", m.cfg.ConnectionTTL)
	return nil
}

// Stop is a no-op; sessions expire on their own.
func (m *Module) Stop(_ context.Context) error { return nil }
