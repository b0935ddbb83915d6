package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/yo2158/break/config"
	"github.com/yo2158/break/engine"
	"github.com/yo2158/break/history"
	"github.com/yo2158/break/llm"
	"github.com/yo2158/break/metrics"
	"github.com/yo2158/break/model"
	"github.com/yo2158/break/server"
	"github.com/yo2158/break/stream"
)

// App wires the debate engine's components together for the serve command.
type App struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// NATS
	embeddedServer *natsserver.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream

	bus      *stream.Bus
	store    *history.Store
	registry *model.Registry
	manager  *engine.Manager
	metrics  *metrics.Metrics

	httpServer *http.Server
	watcher    *config.Watcher
}

// NewApp creates the application instance. Components are wired in Start.
func NewApp(cfg *config.Config, cfgPath string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, cfgPath: cfgPath, logger: logger}, nil
}

// Start initializes all components and begins serving.
func (a *App) Start(ctx context.Context) error {
	if err := a.startNATS(); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	store, err := history.NewStore(ctx, a.js)
	if err != nil {
		return fmt.Errorf("initialize history store: %w", err)
	}
	a.store = store

	a.bus = stream.NewBus(a.natsConn, a.logger)
	a.registry = model.NewRegistry(a.cfg.ModelRoles())
	a.metrics = metrics.New()

	llmClient := llm.NewClient(a.registry,
		llm.WithLogger(a.logger),
		llm.WithHTTPClient(&http.Client{Timeout: a.cfg.Debate.RequestTimeout}))

	gen := engine.NewGenerator(llmClient, a.logger)
	a.manager = engine.NewManager(gen, a.bus, a.logger,
		engine.WithRecorder(store),
		engine.WithMetrics(a.metrics),
		engine.WithAdvanceWait(a.cfg.Debate.AdvanceWait))

	srv := server.New(server.Deps{
		Config:     a.cfg,
		ConfigPath: a.cfgPath,
		Manager:    a.manager,
		Bus:        a.bus,
		History:    store,
		Registry:   a.registry,
		LLM:        llmClient,
		Metrics:    a.metrics,
		Logger:     a.logger,
	})

	mux := http.NewServeMux()
	srv.RegisterHTTPHandlers("api", mux)

	a.httpServer = &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.cfgPath != "" {
		w, err := config.NewWatcher(a.cfgPath, srv.ApplyConfig, a.logger)
		if err != nil {
			a.logger.Warn("config watcher unavailable", "error", err)
		} else if err := w.Start(ctx); err != nil {
			a.logger.Warn("config watcher failed to start", "error", err)
		} else {
			a.watcher = w
		}
	}

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server stopped", "error", err)
		}
	}()

	return nil
}

func (a *App) startNATS() error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		a.logger.Info("connecting to NATS", "url", a.cfg.NATS.URL)
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		a.logger.Info("starting embedded NATS server")
		opts := &natsserver.Options{
			Host:      "127.0.0.1",
			Port:      -1,
			JetStream: true,
			StoreDir:  a.cfg.NATS.StoreDir,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := natsserver.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()
		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}
		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown(ctx context.Context) {
	a.logger.Info("shutting down")

	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Warn("http shutdown", "error", err)
		}
	}
	if a.manager != nil {
		if err := a.manager.Shutdown(ctx); err != nil {
			a.logger.Warn("session shutdown", "error", err)
		}
	}
	if a.natsConn != nil {
		_ = a.natsConn.Drain()
		a.natsConn.Close()
	}
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}
