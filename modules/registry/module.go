// Package registry is the entity repository: users, rooms, and the global
// slug map live here. Every write refreshes the entity's TTL; expiry is the
// only garbage collector.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"

	"github.com/silverlyra/portico/internal/ids"
	"github.com/silverlyra/portico/modules/store"
)

// Config holds the retention windows and the slug allocation bound.
type Config struct {
	UserTTL      time.Duration
	RoomTTL      time.Duration
	SlugAttempts int
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		UserTTL:      6 * time.Hour,
		RoomTTL:      6 * time.Hour,
		SlugAttempts: 4,
	}
}

// Module provides user and room CRUD over the store.
type Module struct {
	cfg   Config
	store *store.Module
	ids   ids.Source
}

var _ mono.Module = (*Module)(nil)

// NewModule creates the registry module.
func NewModule(cfg Config, st *store.Module, src ids.Source) *Module {
	return &Module{cfg: cfg, store: st, ids: src}
}

// Name returns the module name.
func (m *Module) Name() string { return "registry" }

// Start logs the retention windows in effect.
func (m *Module) Start(_ context.Context) error {
	slog.Info("Registry started", "userTTL", m.cfg.UserTTL, "roomTTL", m.cfg.RoomTTL)
	return nil
}

// Stop is a no-op; the registry holds no resources of its own.
func (m *Module) Stop(_ context.Context) error { return nil }
