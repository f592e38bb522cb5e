// Package eventlog owns the append-only streams: one message stream per
// room, one signal stream per connection. Entries are addressed by
// store-assigned, strictly increasing ids; readers track a cursor and only
// ever receive entries beyond it.
package eventlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"

	"github.com/silverlyra/portico/modules/store"
)

// Config mirrors the retention windows of the entities each stream hangs
// off: a room's message stream lives as long as the room, a connection's
// signal stream as long as the connection.
type Config struct {
	RoomTTL       time.Duration
	ConnectionTTL time.Duration
}

// DefaultConfig returns the default event log configuration.
func DefaultConfig() Config {
	return Config{
		RoomTTL:       6 * time.Hour,
		ConnectionTTL: 30 * time.Minute,
	}
}

// Module appends to and tails the event streams.
type Module struct {
	cfg   Config
	store *store.Module
}

var _ mono.Module = (*Module)(nil)

// NewModule creates the event log module.
func NewModule(cfg Config, st *store.Module) *Module {
	return &Module{cfg: cfg, store: st}
}

// Name returns the module name.
func (m *Module) Name() string { return "eventlog" }

// Start logs stream retention.
func (m *Module) Start(_ context.Context) error {
	slog.Info("Event log started", "roomTTL", m.cfg.RoomTTL, "connectionTTL", m.cfg.ConnectionTTL)
	return nil
}

// Stop is a no-op; streams expire with their entities.
func (m *Module) Stop(_ context.Context) error { return nil }
