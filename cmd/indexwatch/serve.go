package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/indexwatch"
	"github.com/jpalmerr/indexwatch/config"
	"github.com/jpalmerr/indexwatch/internal/server"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the tracker and the local HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Track indexing jobs and serve the local API",
	Long: `Start the indexwatch server.

The server will:
  - Load configuration from the specified YAML file
  - Load the project list from the backend
  - Start tracking every project listed under watch, and (with --resume)
    every project the backend reports as indexing
  - Serve the tracked projects, indexing triggers and an SSE change
    stream on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM, at which
point all polling is stopped.

Example:
  indexwatch serve -c config.yaml
  indexwatch serve -c config.yaml --resume=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("resume", true, "track projects the backend already reports as indexing")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return errors.New(`required flag "config" not set`)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if u, _ := cmd.Flags().GetString("backend"); u != "" {
		cfg.Backend.URL = u
	}

	logger := newLogger(cfg.SlogLevel())
	logger.Info("config loaded",
		"backend", cfg.Backend.URL,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"watch", len(cfg.Watch),
	)

	client, err := config.BuildClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	// nil interfaces leave /metrics unrouted and the tracker uninstrumented
	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer, gatherer = reg, reg
	}

	opts := config.BuildOptions(cfg, client, logger, registerer)
	opts = append(opts, indexwatch.WithTerminalCallback(func(js indexwatch.JobStatus) {
		logger.Info("indexing finished",
			"project_id", js.Project.ID,
			"name", js.Project.Name,
			"status", js.Project.Status.String(),
			"file_count", js.Project.FileCount,
		)
	}))

	tr, err := indexwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}
	defer tr.StopAll()

	ctx := cmd.Context()

	resume, _ := cmd.Flags().GetBool("resume")
	loadAndResume(ctx, client, tr, cfg.Watch, resume, logger)

	srv := server.NewServer(tr, cfg.Port, gatherer, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	done := make(chan struct{})
	go func() {
		tr.StopAll()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
	}
	return nil
}
