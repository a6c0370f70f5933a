// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/graphmirror/internal/config"
	"github.com/olegiv/graphmirror/internal/handler"
	"github.com/olegiv/graphmirror/internal/logging"
	"github.com/olegiv/graphmirror/internal/remote"
	"github.com/olegiv/graphmirror/internal/scheduler"
	"github.com/olegiv/graphmirror/internal/store"
	"github.com/olegiv/graphmirror/internal/syncer"
	"github.com/olegiv/graphmirror/internal/trigger"
	"github.com/olegiv/graphmirror/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	once := flag.Bool("once", false, "run a single sync pass and exit")
	flag.Parse()

	version.Set(version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime})

	// Load .env if present; real env vars take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := logging.ParseLevel(cfg.LogLevel)
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})

	if !cfg.UseRedisStore() {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	nodeStore, err := store.Open(store.Options{
		Backend:   cfg.StoreBackend,
		DBPath:    cfg.DBPath,
		RedisURL:  cfg.RedisURL,
		KeyPrefix: cfg.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("opening node store: %w", err)
	}
	defer nodeStore.Close()

	// With the SQLite backend, mirror WARN+ logs into the events table.
	var logHandler slog.Handler = baseHandler
	if sqliteStore, ok := nodeStore.(*store.SQLiteStore); ok {
		logHandler = logging.NewEventLogHandler(baseHandler, sqliteStore.DB())
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("graphmirror starting",
		"version", appVersion,
		"store", cfg.StoreBackend,
		"languages", cfg.Languages,
		"channel", cfg.Channel)

	source, err := remote.NewClient(remote.ClientOptions{
		BaseURL:   cfg.RemoteURL,
		APIKey:    cfg.RemoteAPIKey,
		FetchRate: cfg.FetchRate,
	})
	if err != nil {
		return err
	}

	runner := syncer.NewRunner(source, nodeStore, logger, syncer.Options{
		Languages: cfg.Languages,
		Channel:   cfg.Channel,
		PageSize:  cfg.PageSize,
		MaxDepth:  cfg.MaxDepth,
	})

	if *once {
		return runner.RunPass(context.Background())
	}

	debouncer := trigger.NewDebouncer(func(ctx context.Context) {
		if err := runner.RunPass(ctx); err != nil {
			logger.Error("webhook-triggered sync failed", "error", err)
		}
	}, trigger.DefaultDebounceConfig(), logger)
	defer debouncer.Close()

	sched := scheduler.New(logger)
	if cfg.SyncSchedule != "" {
		err := sched.Add("sync", cfg.SyncSchedule, func() {
			if err := runner.RunPass(context.Background()); err != nil {
				logger.Error("scheduled sync failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	h := handler.New(runner, debouncer, logger)
	server := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.ServerAddr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
