// Kickwatch - Kick.com Live Stream Alerts for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kickwatch

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/kickwatch/internal/api"
	"github.com/tomtom215/kickwatch/internal/commands"
	"github.com/tomtom215/kickwatch/internal/config"
	"github.com/tomtom215/kickwatch/internal/delivery"
	"github.com/tomtom215/kickwatch/internal/engine"
	"github.com/tomtom215/kickwatch/internal/kick"
	"github.com/tomtom215/kickwatch/internal/logging"
	"github.com/tomtom215/kickwatch/internal/scheduler"
	"github.com/tomtom215/kickwatch/internal/store"
	"github.com/tomtom215/kickwatch/internal/supervisor"
	"github.com/tomtom215/kickwatch/internal/supervisor/services"
)

const httpShutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var memory, dryRun bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the watcher and the admin API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServeConfig(memory, dryRun)
			if err != nil {
				return err
			}
			initLogging(cfg)
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "Keep configuration in memory instead of badger")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log notifications instead of sending them to Discord")
	return cmd
}

func loadServeConfig(memory, dryRun bool) (*config.Config, error) {
	load := config.Load
	if dryRun {
		load = config.LoadOffline
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if memory {
		cfg.Store.Backend = store.BackendMemory
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
}

func newMessenger(cfg *config.DiscordConfig) delivery.Messenger {
	if cfg.DryRun {
		logging.Warn().Msg("Discord dry-run enabled, notifications are logged only")
		return delivery.NewLogMessenger()
	}
	return delivery.NewDiscordClient(cfg)
}

func runServe(parent context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	logging.Info().
		Str("store", cfg.Store.Backend).
		Bool("api", cfg.Server.Enabled).
		Bool("dry_run", cfg.Discord.DryRun).
		Msg("Starting Kickwatch")

	st, err := store.Open(&cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Closing store")
		}
	}()

	client := kick.NewClient(&cfg.Kick)
	messenger := newMessenger(&cfg.Discord)
	eng := engine.New(st, client, messenger)

	ready := services.NewReadySignal()
	sched := scheduler.New(st, eng, cfg.Scheduler,
		scheduler.WithReady(ready.C()),
		scheduler.WithUpstream(client),
	)
	svc := commands.NewService(st, client, messenger, sched,
		commands.WithChannelBase(cfg.Kick.ChannelBaseURL),
	)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}
	tree.AddMonitorService(sched)

	if cfg.Server.Enabled {
		srv := &http.Server{
			Handler:           api.NewRouter(api.NewHandler(svc, sched, client), &cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.Timeout,
			WriteTimeout:      cfg.Server.Timeout,
			IdleTimeout:       2 * cfg.Server.Timeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.Addr(), httpShutdownTimeout,
			services.WithOnListening(func(addr net.Addr) {
				logging.Info().Str("addr", addr.String()).Msg("Admin API listening")
				ready.Fire()
			}),
		))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)
	if !cfg.Server.Enabled {
		ready.Fire()
	}

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
		cancel()
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, u := range unstopped {
			logging.Warn().Str("service", u.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Kickwatch stopped")
	return nil
}
