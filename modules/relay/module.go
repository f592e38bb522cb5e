// Package relay runs one live forwarder per connected participant: it tails
// the room's message stream and the peer's signal stream, enriches entries,
// and writes them to the participant's socket until it closes.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-monolith/mono"

	"github.com/silverlyra/portico/domain/rooms"
	"github.com/silverlyra/portico/modules/registry"
	"github.com/silverlyra/portico/modules/store"
)

// Config tunes the relay loop.
type Config struct {
	// Block is how long a stream read waits before ticking. It is the only
	// point where a forwarder re-checks whether it should keep running, so
	// it bounds shutdown latency.
	Block time.Duration
}

// DefaultConfig returns the default relay configuration.
func DefaultConfig() Config {
	return Config{Block: time.Second}
}

// Destination is one participant's outbound half of the duplex transport.
// Send marshals the event as JSON; opaque signal payloads are passed through
// as json.RawMessage and reach the wire verbatim.
type Destination interface {
	Send(event any) error
	Close() error
}

// Module tracks the active forwarders so shutdown can cancel them.
type Module struct {
	cfg      Config
	store    *store.Module
	registry *registry.Module

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ mono.Module = (*Module)(nil)

// NewModule creates the relay module.
func NewModule(cfg Config, st *store.Module, reg *registry.Module) *Module {
	return &Module{cfg: cfg, store: st, registry: reg}
}

// Name returns the module name.
func (m *Module) Name() string { return "relay" }

// Start arms the shared cancellation context for all forwarders.
func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	slog.Info("Relay started", "block", m.cfg.Block)
	return nil
}

// Stop cancels every active forwarder and waits for them to drain. Each
// forwarder notices within one block interval.
func (m *Module) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("Relay stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Forward runs one forwarder for an established connection, blocking until
// the destination closes, the context or module is cancelled, or the store
// fails. A store failure is returned to the caller, who is responsible for
// deleting the session to reconcile occupancy.
func (m *Module) Forward(ctx context.Context, room *rooms.Room, actor, connectionID string, dest Destination) error {
	m.wg.Add(1)
	defer m.wg.Done()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if m.ctx != nil {
		stop := context.AfterFunc(m.ctx, cancel)
		defer stop()
	}

	f := &forwarder{
		store:      m.store,
		registry:   m.registry,
		block:      m.cfg.Block,
		room:       room,
		actor:      actor,
		connection: connectionID,
		dest:       dest,
		users:      make(map[string]rooms.UserRef),
	}
	return f.run(runCtx)
}
