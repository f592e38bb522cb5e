package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/silverlyra/portico/internal/ids"
	"github.com/silverlyra/portico/modules/eventlog"
	"github.com/silverlyra/portico/modules/httpserver"
	"github.com/silverlyra/portico/modules/registry"
	"github.com/silverlyra/portico/modules/relay"
	"github.com/silverlyra/portico/modules/session"
	"github.com/silverlyra/portico/modules/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	source, err := ids.NewGenerator()
	if err != nil {
		log.Fatalf("Failed to create id generator: %v", err)
	}

	storeCfg := store.DefaultConfig()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		storeCfg.Addr = addr
	}
	registryCfg := registry.DefaultConfig()
	sessionCfg := session.DefaultConfig()
	eventlogCfg := eventlog.Config{
		RoomTTL:       registryCfg.RoomTTL,
		ConnectionTTL: sessionCfg.ConnectionTTL,
	}
	serverCfg := httpserver.DefaultConfig()
	if port := os.Getenv("PORT"); port != "" {
		serverCfg.Addr = ":" + port
	}
	if secret := os.Getenv("PORTICO_SECRET"); secret != "" {
		serverCfg.Secret = secret
	} else {
		slog.Warn("PORTICO_SECRET not set; using the development signing key")
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		serverCfg.AllowOrigins = origins
	}

	storeModule := store.NewModule(storeCfg)
	registryModule := registry.NewModule(registryCfg, storeModule, source)
	sessionModule := session.NewModule(sessionCfg, storeModule, registryModule, source)
	eventlogModule := eventlog.NewModule(eventlogCfg, storeModule)
	relayModule := relay.NewModule(relay.DefaultConfig(), storeModule, registryModule)
	serverModule := httpserver.NewModule(serverCfg, registryModule, sessionModule, eventlogModule, relayModule)

	// Order: the store first, the outer surface last.
	app.Register(storeModule)
	app.Register(registryModule)
	app.Register(sessionModule)
	app.Register(eventlogModule)
	app.Register(relayModule)
	app.Register(serverModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				slog.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	slog.Info("Application exited", "code", exitCode)
	os.Exit(exitCode)
}
