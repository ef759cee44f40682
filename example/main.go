// Command example runs a mock indexing backend in-process, indexes every
// project on it and prints each job's outcome.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/indexwatch"
	"github.com/jpalmerr/indexwatch/backend"
	"github.com/jpalmerr/indexwatch/example/mockbackend"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mock := httptest.NewServer(mockbackend.New(logger, "api-gateway", "billing", "search-ui").Handler())
	defer mock.Close()

	client, err := backend.NewClient(mock.URL)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	finished := make(chan indexwatch.JobStatus, 8)
	tr, err := indexwatch.New(
		indexwatch.WithBackend(client),
		indexwatch.WithLogger(logger),
		indexwatch.WithTerminalCallback(func(js indexwatch.JobStatus) {
			finished <- js
		}),
	)
	if err != nil {
		logger.Error("failed to create tracker", "error", err)
		os.Exit(1)
	}
	defer tr.StopAll()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	projects, err := client.ListProjects(ctx)
	if err != nil {
		logger.Error("failed to list projects", "error", err)
		os.Exit(1)
	}
	tr.Load(projects)

	for _, p := range projects {
		if err := tr.Index(ctx, p.ID); err != nil {
			logger.Error("failed to index", "project", p.Name, "error", err)
		}
	}
	fmt.Printf("Indexing %d projects, polling every 2s. Press Ctrl+C to stop.\n\n", len(tr.IndexingIDs()))

	start := time.Now()
	for remaining := len(tr.IndexingIDs()); remaining > 0; remaining-- {
		select {
		case js := <-finished:
			fmt.Printf("  %-12s %-6s %4d files after %s\n",
				js.Project.Name, js.Project.Status, js.Project.FileCount, time.Since(start).Round(time.Second))
		case <-ctx.Done():
			fmt.Println("\ninterrupted")
			return
		}
	}
}
