package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iagro/supervisory/internal/api"
	"github.com/iagro/supervisory/internal/config"
	"github.com/iagro/supervisory/internal/history"
	"github.com/iagro/supervisory/internal/logging"
	"github.com/iagro/supervisory/internal/metrics"
	"github.com/iagro/supervisory/internal/plcsim"
	"github.com/iagro/supervisory/internal/session"
	"github.com/iagro/supervisory/internal/storage"
)

func run(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load XML configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(serviceName, Version, logging.Config{
		Level:  cfg.Advanced.LogLevel,
		Format: cfg.Advanced.LogFormat,
		Output: cfg.Advanced.LogOutput,
	})
	logger.Info().Str("config", configPath).Str("build_time", BuildTime).Msg("starting supervisory server")

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry := metrics.NewRegistry()

	sessionMgr := session.NewManager(
		session.WithMaxSessions(cfg.Session.MaxSessions),
		session.WithLogger(logger.With().Str("component", "sessions").Logger()),
		session.WithObserver(registry.UpdateActiveSessions),
	)

	sim, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}

	var (
		historyStore  *history.Store
		historyReader api.HistoryReader
	)
	if cfg.Advanced.EnableHistory {
		historyStore, err = history.Open(logger.With().Str("component", "history").Logger())
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer historyStore.Close()
		historyReader = historyStore
	}

	// PLC simulator; history keeps a rolling trend of every tick
	var recorder plcsim.Recorder
	if historyStore != nil {
		recorder = historyStore
	}
	go sim.Run(ctx, cfg.TickInterval(), registry.InstrumentRecorder(recorder))

	go runEvery(ctx, cfg.CleanupInterval(), func() {
		if n := sessionMgr.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
			logger.Info().Int("removed", n).Msg("session cleanup")
		}
		if historyStore != nil {
			removed, err := historyStore.Prune(ctx, time.Now().Add(-cfg.HistoryRetention()))
			if err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("history prune failed")
			} else if removed > 0 {
				logger.Debug().Int64("removed", removed).Msg("history pruned")
			}
		}
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:         logger.With().Str("component", "http").Logger(),
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		Recorder:       registry,
		BodyLimit:      cfg.Server.BodyLimit,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.Server.AllowOrigins,
		RequestTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
	})

	handlers := api.NewHandlers(&api.Dependencies{
		Store:            fileStore,
		Sessions:         sessionMgr,
		Variables:        sim,
		History:          historyReader,
		Telemetry:        registry,
		Logger:           logger.With().Str("component", "api").Logger(),
		Version:          Version,
		AllowedFileTypes: cfg.Storage.AllowedFileTypes,
		UploadLimit:      cfg.Storage.MaxUploadSize,
		PushInterval:     cfg.PushInterval(),
	})
	api.RegisterRoutes(e, handlers)
	e.GET("/metrics", echo.WrapHandler(registry.Handler()))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:        cfg.GetServerAddr(),
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		IdleTimeout: time.Duration(cfg.Server.IdleTimeout) * time.Second,
		// websocket connections outlive WriteTimeout; writes carry their own deadlines
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("listen", cfg.GetServerAddr()).
			Str("data_dir", cfg.GetDataDir()).
			Int("variables", len(sim.Snapshot())).
			Msg("server listening")
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.WriteTimeout)*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

func newSimulator(cfg *config.AppConfig, logger zerolog.Logger) (*plcsim.Simulator, error) {
	defs := plcsim.DefaultDefinitions()
	if cfg.Simulator.VariablesFile != "" {
		loaded, err := plcsim.LoadFile(cfg.Simulator.VariablesFile)
		if err != nil {
			return nil, err
		}
		defs = loaded
	}
	return plcsim.New(defs, plcsim.Options{
		Seed:              cfg.Simulator.Seed,
		ToggleProbability: cfg.Simulator.ToggleProbability,
		Logger:            logger.With().Str("component", "plcsim").Logger(),
	}), nil
}

// runEvery calls fn each interval until ctx is done
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
