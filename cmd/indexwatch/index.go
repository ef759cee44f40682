package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/indexwatch"
	"github.com/jpalmerr/indexwatch/backend"
)

var indexCmd = &cobra.Command{
	Use:   "index <id>",
	Short: "Trigger indexing of a project",
	Long: `Ask the backend to index a project.

With --wait, the project is then polled every --interval until it
reports ready or error. The command exits non-zero if indexing ends in
error or a status check fails.

Example:
  indexwatch index 3f2b9c1e-5a4d-4e8f-9b7a-1c2d3e4f5a6b --wait`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolP("wait", "w", false, "follow the job until it finishes")
	indexCmd.Flags().Duration("interval", 2*time.Second, "polling interval used with --wait")
	indexCmd.Flags().Bool("verbose", false, "log every status check")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	id := args[0]
	out := cmd.OutOrStdout()

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	wait, _ := cmd.Flags().GetBool("wait")
	if !wait {
		resp, err := client.StartIndex(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to trigger indexing: %w", err)
		}
		fmt.Fprintf(out, "%s: %s\n", resp.ProjectID, resp.Message)
		return nil
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}

	p, err := indexAndWait(cmd, client, id, interval, newLogger(level), out)
	if err != nil {
		return err
	}
	if p.Status == indexwatch.StatusError {
		return fmt.Errorf("indexing of %s failed", id)
	}
	return nil
}

// indexAndWait triggers indexing of id through a tracker and follows the
// job to completion.
func indexAndWait(cmd *cobra.Command, client *backend.Client, id string, interval time.Duration, logger *slog.Logger, out io.Writer) (indexwatch.Project, error) {
	ctx := cmd.Context()

	tr, err := indexwatch.New(
		indexwatch.WithBackend(client),
		indexwatch.WithPollingInterval(interval),
		indexwatch.WithLogger(logger),
	)
	if err != nil {
		return indexwatch.Project{}, err
	}
	defer tr.StopAll()

	current, err := client.GetProject(ctx, id)
	if err != nil {
		return indexwatch.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	tr.Load([]indexwatch.Project{current})

	if err := tr.Index(ctx, id); err != nil {
		return indexwatch.Project{}, err
	}

	fmt.Fprintf(out, "Indexing %s (%s)...\n", current.Name, id)
	start := time.Now()

	last := indexwatch.StatusIndexing
	p, err := waitForJob(ctx, tr, id, func(p indexwatch.Project) {
		if p.Status != last {
			fmt.Fprintf(out, "  %s\n", p.Status)
			last = p.Status
		}
	})
	if err != nil {
		return p, err
	}

	fmt.Fprintf(out, "Finished %s in %s: %s, %d files\n",
		id, time.Since(start).Round(time.Second), p.Status, p.FileCount)
	return p, nil
}
