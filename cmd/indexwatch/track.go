package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/indexwatch"
	"github.com/jpalmerr/indexwatch/backend"
)

// loadAndResume seeds tr with the backend's project list and starts
// tracking the watched ids. With resume, projects already indexing are
// tracked too. A failed listing is logged and leaves the collection empty.
func loadAndResume(ctx context.Context, client *backend.Client, tr *indexwatch.Tracker, watch []string, resume bool, logger *slog.Logger) {
	listCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	projects, err := client.ListProjects(listCtx)
	if err != nil {
		logger.Warn("failed to load projects", "error", err)
	} else {
		tr.Load(projects)
		logger.Info("projects loaded", "count", len(projects))
	}

	for _, id := range watch {
		tr.Start(id)
	}

	if !resume {
		return
	}
	for _, p := range projects {
		if p.Status == indexwatch.StatusIndexing {
			tr.Start(p.ID)
		}
	}
}

// waitForJob blocks until tr stops tracking id and returns the project's
// final snapshot. onChange is called for every snapshot of id observed
// while waiting.
//
// A job that leaves tracking without a terminal status was dropped after a
// failed status check; that is reported as an error.
func waitForJob(ctx context.Context, tr *indexwatch.Tracker, id string, onChange func(indexwatch.Project)) (indexwatch.Project, error) {
	ch := tr.Subscribe()
	defer tr.Unsubscribe(ch)

	// the subscription misses exits that raced with Subscribe
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for tr.IsIndexing(id) {
		select {
		case <-ctx.Done():
			return indexwatch.Project{}, ctx.Err()
		case p, ok := <-ch:
			if ok && p.ID == id && onChange != nil {
				onChange(p)
			}
		case <-ticker.C:
		}
	}

	p, ok := tr.Project(id)
	if !ok {
		return indexwatch.Project{}, fmt.Errorf("project %s not found", id)
	}
	if !p.Status.Terminal() {
		return p, fmt.Errorf("lost track of project %s while %s; see logs for the failed status check", id, p.Status)
	}
	return p, nil
}
