// Package main is the entry point for the indexwatch CLI.
//
// indexwatch tracks indexing jobs on the code indexing backend. It can run
// as a long-lived server exposing tracked projects over HTTP, or as a
// one-shot client for the backend's REST API.
//
// Usage:
//
//	indexwatch serve -c config.yaml      # Track jobs and serve the local API
//	indexwatch validate -c config.yaml   # Validate configuration
//	indexwatch projects list             # List backend projects
//	indexwatch index <id> --wait         # Trigger indexing and follow it
//	indexwatch search <id> "query"       # Semantic search
//	indexwatch plan generate <id> "task" # Generate an implementation plan
//	indexwatch version                   # Show version info
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/indexwatch/backend"
	"github.com/jpalmerr/indexwatch/config"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const backendURLEnv = "INDEXWATCH_BACKEND_URL"

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "indexwatch",
	Short: "Track code indexing jobs",
	Long: `indexwatch follows indexing jobs on the code indexing backend.

Each tracked project is polled every poll_interval until it reports
ready or error. Polling for a project stops on the first failed status
check.

Quick start:
  1. Start the backend (default http://localhost:8000)
  2. Run: indexwatch projects list
  3. Run: indexwatch index <project-id> --wait

Client commands read the backend address from --backend, then the
backend section of --config, then $INDEXWATCH_BACKEND_URL.`,
	SilenceUsage: true,
}

// Execute runs the root command.
// SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this indexwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "indexwatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("backend", "", "backend base URL (overrides config and $"+backendURLEnv+")")
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")

	rootCmd.AddCommand(versionCmd)
}

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig returns the config named by --config, or defaults when the
// flag is unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Parse([]byte("{}"))
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newClient builds a backend client from the command's flags.
func newClient(cmd *cobra.Command) (*backend.Client, error) {
	return newClientWithTimeout(cmd, 0)
}

// newClientWithTimeout is newClient with the per-request timeout raised to
// at least minTimeout.
func newClientWithTimeout(cmd *cobra.Command, minTimeout time.Duration) (*backend.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	if u, _ := cmd.Flags().GetString("backend"); u != "" {
		cfg.Backend.URL = u
	} else if u := os.Getenv(backendURLEnv); u != "" && configPath == "" {
		cfg.Backend.URL = u
	}

	if minTimeout > 0 && cfg.Backend.Timeout.Duration() < minTimeout {
		cfg.Backend.Timeout = config.Duration(minTimeout)
	}

	return config.BuildClient(cfg)
}
