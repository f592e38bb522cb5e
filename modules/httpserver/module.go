// Package httpserver is the outer surface: a fiber app serving the REST API
// and the per-room WebSocket endpoint. It resolves the caller's identity
// before any core call and maps the core's error kinds onto status codes.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/silverlyra/portico/domain/rooms"
	"github.com/silverlyra/portico/modules/eventlog"
	"github.com/silverlyra/portico/modules/registry"
	"github.com/silverlyra/portico/modules/relay"
	"github.com/silverlyra/portico/modules/session"
)

// Config holds the server's listen address and token settings.
type Config struct {
	Addr         string
	Secret       string
	TokenTTL     time.Duration
	AllowOrigins string
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":3000",
		Secret:       "portico-dev-secret",
		TokenTTL:     6 * time.Hour,
		AllowOrigins: "http://localhost:3000,http://localhost:5173",
	}
}

// Module runs the fiber application.
type Module struct {
	cfg      Config
	app      *fiber.App
	tokens   *TokenManager
	registry *registry.Module
	sessions *session.Module
	eventlog *eventlog.Module
	relay    *relay.Module
}

var _ mono.Module = (*Module)(nil)

// NewModule creates the HTTP server module.
func NewModule(cfg Config, reg *registry.Module, sess *session.Module, log *eventlog.Module, rel *relay.Module) *Module {
	return &Module{
		cfg:      cfg,
		tokens:   NewTokenManager(cfg.Secret, cfg.TokenTTL),
		registry: reg,
		sessions: sess,
		eventlog: log,
		relay:    rel,
	}
}

// Name returns the module name.
func (m *Module) Name() string { return "http-server" }

// Start builds the fiber app and begins listening.
func (m *Module) Start(_ context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "portico",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: m.cfg.AllowOrigins,
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	slog.Info("HTTP server started", "addr", m.cfg.Addr)
	return nil
}

// Stop shuts the server down, refusing new connections and draining the
// rest.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

func (m *Module) registerRoutes() {
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := m.app.Group("/api/v1")
	api.Post("/users", m.handleRegister)
	api.Get("/users/:id", m.requireActor, m.handleGetUser)
	api.Patch("/users/:id", m.requireActor, m.handleUpdateUser)
	api.Post("/rooms", m.requireActor, m.handleCreateRoom)
	api.Get("/rooms/:slug", m.requireActor, m.handleGetRoom)

	// WebSocket upgrade: authenticate before upgrading, then hand the
	// socket to the session lifecycle.
	m.app.Use("/rooms/:slug/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		actor, err := m.tokens.Validate(tokenFrom(c))
		if err != nil {
			return err
		}
		c.Locals(actorKey, actor)
		return c.Next()
	})
	m.app.Get("/rooms/:slug/ws", websocket.New(m.handleSocket))
}

// errorHandler maps the core's error kinds to HTTP statuses in one place.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": "http", "message": fe.Message})
	}

	kind := rooms.KindOf(err)
	if kind == rooms.KindInternal {
		slog.Error("Request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": kind.String(), "message": "internal error",
		})
	}
	return c.Status(statusOf(kind)).JSON(fiber.Map{
		"error": kind.String(), "message": err.Error(),
	})
}

func statusOf(kind rooms.Kind) int {
	switch kind {
	case rooms.KindUnauthorized:
		return fiber.StatusUnauthorized
	case rooms.KindForbidden:
		return fiber.StatusForbidden
	case rooms.KindNotFound:
		return fiber.StatusNotFound
	case rooms.KindConflict:
		return fiber.StatusConflict
	case rooms.KindInvalidInput:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
