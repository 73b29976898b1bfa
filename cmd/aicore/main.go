// Package main is the entry point for the orchestration service daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	aicore "github.com/scanforge/aicore"
	"github.com/scanforge/aicore/internal/config"
	"github.com/scanforge/aicore/internal/observability"
)

func main() {
	systemConfig := flag.String("system-config", config.SystemConfigPath, "path to the system configuration file")
	userConfig := flag.String("user-config", "", "path to the user configuration file (default: ~/.config/aicore/config.yaml)")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting orchestration service", "version", aicore.Version)

	userPath := *userConfig
	if userPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			userPath = home + "/" + config.UserConfigFile
		}
	}

	cfgManager, err := config.NewManager(logger, *systemConfig, userPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	defer func() { _ = cfgManager.Close() }()

	cfg := cfgManager.Get()
	if !cfg.Service.Enabled {
		logger.Error("service is disabled in configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfgManager.Watch(ctx); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	svcLogger := observability.NewLogger(observability.LoggerConfig{
		Level:      observability.ParseLevel(cfg.Security.LogLevel),
		Output:     os.Stdout,
		JSONFormat: true,
	}, redactorFor(cfg))

	svc, err := aicore.New(
		aicore.FromConfig(cfg),
		aicore.WithLogger(svcLogger),
	)
	if err != nil {
		logger.Error("failed to initialize service", "error", err)
		os.Exit(1)
	}
	defer func() { _ = svc.Close() }()

	cfgManager.OnChange(func(next *config.Config) {
		// Backend credentials and limits change rarely; a restart picks
		// them up. Feature and cache toggles would need a rebuild too, so
		// only log the reload here.
		logger.Info("configuration changed on disk; restart to apply backend changes")
	})

	svc.StartHealthProbes(ctx)

	h := newHandler(svc, logger)
	server := &http.Server{
		Addr:         *addr,
		Handler:      buildMux(h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// redactorFor honors the sanitize_data setting.
func redactorFor(cfg *config.Config) *observability.Redactor {
	if !cfg.Security.SanitizeData {
		return nil
	}
	return observability.NewRedactor()
}
