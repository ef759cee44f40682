// Package indexwatch tracks code indexing jobs on a remote backend and
// keeps a local project collection in sync with their progress.
//
// Indexing runs server-side and can take minutes. A [Tracker] follows each
// job by polling its status at a fixed interval, folding every reported
// snapshot into the project collection, until the job reports
// [StatusReady] or [StatusError].
//
// # Quick Start
//
//	client, _ := backend.NewClient("http://localhost:8000")
//	tr, _ := indexwatch.New(indexwatch.WithBackend(client))
//	defer tr.StopAll()
//
//	projects, _ := client.ListProjects(ctx)
//	tr.Load(projects)
//
//	// trigger indexing and follow it
//	if err := tr.Index(ctx, projects[0].ID); err != nil {
//	    return err
//	}
//
// # Polling
//
// Each job gets one polling loop. The next status check is scheduled only
// after the previous one completes, so checks for a job never overlap and
// a slow backend stretches the effective interval instead of queueing
// requests. Starting a job that is already tracked does nothing.
//
// Polling stops for a job when:
//   - the job reports a terminal status, which is applied first
//   - a status check fails; the project keeps its last known status and
//     the failure is logged
//   - [Tracker.StopAll] is called; a check in flight is cancelled and its
//     result discarded
//
// # Observing progress
//
// [Tracker.Projects] and [Tracker.IndexingIDs] return snapshots.
// [Tracker.Subscribe] delivers each project snapshot that changes the
// collection. [WithTerminalCallback] registers a function called once per
// job that reaches a terminal status:
//
//	tr, _ := indexwatch.New(
//	    indexwatch.WithBackend(client),
//	    indexwatch.WithTerminalCallback(func(js indexwatch.JobStatus) {
//	        log.Printf("%s finished: %s", js.Project.Name, js.Project.Status)
//	    }),
//	)
//
// Callbacks run on the job's polling goroutine after the job has been
// released, so they may start or stop tracking freely. Panics in callbacks
// are recovered and logged.
//
// # Thread Safety
//
// All exported methods of [Tracker] are safe for concurrent use.
package indexwatch
