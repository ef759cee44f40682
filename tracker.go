package indexwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jpalmerr/indexwatch/internal/metrics"
	"github.com/jpalmerr/indexwatch/internal/poller"
	"github.com/jpalmerr/indexwatch/internal/store"
)

const defaultPollingInterval = 2 * time.Second

// ErrNoIndexTrigger is returned by [Tracker.Index] when no [IndexTrigger]
// was configured.
var ErrNoIndexTrigger = errors.New("no index trigger configured")

// Tracker follows in-flight indexing jobs and keeps a reconciled project
// collection up to date.
//
// Each tracked job has exactly one polling loop. A loop ends when the job
// reaches a terminal status, when a status check fails, or when
// [Tracker.StopAll] is called. The owner of a Tracker must call StopAll
// when it is done with it; that is the only way to guarantee no polling
// outlives the owner.
//
// The typical lifecycle is:
//
//	tr, err := indexwatch.New(indexwatch.WithBackend(client))
//	if err != nil {
//	    return err
//	}
//	defer tr.StopAll()
//
//	tr.Load(projects)
//	if err := tr.Index(ctx, projectID); err != nil {
//	    return err
//	}
//
// All methods are safe for concurrent use.
type Tracker struct {
	source            StatusSource
	trigger           IndexTrigger
	pollingInterval   time.Duration
	logger            *slog.Logger
	metrics           *metrics.Metrics
	terminalCallbacks []func(JobStatus)

	projects *store.MemoryStore[Project]

	// mu guards registry and indexing, and serializes result application
	mu       sync.Mutex
	registry *poller.Registry
	indexing map[string]struct{}
}

// New creates a new [Tracker] with the given options.
//
// A status source must be configured via [WithStatusSource] or [WithBackend].
// Other options have sensible defaults:
//   - Polling interval: 2 seconds
//   - Logger: slog.Default()
//   - Metrics: disabled
func New(opts ...Option) (*Tracker, error) {
	cfg := &trackerConfig{
		pollingInterval: defaultPollingInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.source == nil {
		return nil, errors.New("a status source is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	if cfg.registerer != nil {
		m = metrics.New(cfg.registerer)
	}

	t := &Tracker{
		source:            cfg.source,
		trigger:           cfg.trigger,
		pollingInterval:   cfg.pollingInterval,
		logger:            logger,
		metrics:           m,
		terminalCallbacks: cfg.terminalCallbacks,
		projects:          store.NewMemoryStore(projectID, Project.Equal),
		registry:          poller.NewRegistry(),
		indexing:          make(map[string]struct{}),
	}
	if len(cfg.projects) > 0 {
		t.projects.Replace(cfg.projects)
	}
	return t, nil
}

// Start begins polling the status of jobID.
//
// If jobID already has a live poller, Start is a no-op. Otherwise jobID is
// marked as indexing before Start returns and the first status check runs
// one polling interval later. Start never fails; problems surface as a
// terminal [StatusError] or as the job silently leaving [Tracker.IndexingIDs].
func (t *Tracker) Start(jobID string) {
	if jobID == "" {
		t.logger.Warn("ignoring start for empty job id")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.registry.Has(jobID) {
		t.metrics.ObserveStart(true)
		t.logger.Debug("job already tracked", "job_id", jobID)
		return
	}

	var h *poller.Handle
	h = poller.NewHandle(poller.Config{
		JobID:    jobID,
		Interval: t.pollingInterval,
		Check: func(ctx context.Context) bool {
			return t.check(ctx, h)
		},
		OnExit: t.release,
		Logger: t.logger,
	})

	t.registry.Register(jobID, h)
	t.indexing[jobID] = struct{}{}
	t.metrics.ObserveStart(false)
	t.metrics.SetActive(t.registry.Len())

	h.Start(context.Background())
	t.logger.Debug("tracking job", "job_id", jobID, "interval", t.pollingInterval.String())
}

// Index triggers indexing of projectID and then starts tracking it.
//
// The trigger is a separate request; its error is returned and tracking is
// not started. On success the project's local status is set to
// [StatusIndexing] until the first status check reports otherwise.
func (t *Tracker) Index(ctx context.Context, projectID string) error {
	if t.trigger == nil {
		return ErrNoIndexTrigger
	}
	if err := t.trigger.TriggerIndex(ctx, projectID); err != nil {
		return fmt.Errorf("failed to trigger indexing for %s: %w", projectID, err)
	}

	t.mu.Lock()
	if !t.registry.Has(projectID) {
		if p, ok := t.projects.Get(projectID); ok && p.Status != StatusIndexing {
			p.Status = StatusIndexing
			t.projects.Apply(p)
		}
	}
	t.mu.Unlock()

	t.Start(projectID)
	return nil
}

// StopAll cancels every live poller, clears [Tracker.IndexingIDs] and waits
// for the polling goroutines to exit.
//
// A status check already in flight has its context cancelled and its
// result, if any, is discarded. StopAll is safe to call more than once and
// after jobs have finished on their own. The Tracker remains usable
// afterwards.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	handles := t.registry.DrainAll()
	for _, h := range handles {
		h.Cancel()
	}
	clear(t.indexing)
	t.metrics.SetActive(0)
	t.mu.Unlock()

	// loops may still be inside a check; they exit without applying results
	for _, h := range handles {
		h.Wait()
	}

	if len(handles) > 0 {
		t.logger.Info("tracker stopped", "cancelled_pollers", len(handles))
	}
}

// Load replaces the project collection, typically after listing projects
// from the backend. Jobs already being tracked keep polling.
func (t *Tracker) Load(projects []Project) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projects.Replace(projects)
}

// Projects returns a snapshot of the reconciled project collection.
func (t *Tracker) Projects() []Project {
	return t.projects.GetAll()
}

// Project returns the current snapshot of a single project.
func (t *Tracker) Project(id string) (Project, bool) {
	return t.projects.Get(id)
}

// IndexingIDs returns the ids that currently have a live poller, sorted.
func (t *Tracker) IndexingIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.indexing))
	for id := range t.indexing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsIndexing reports whether id currently has a live poller.
func (t *Tracker) IsIndexing(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.indexing[id]
	return ok
}

// Subscribe returns a channel that receives every project snapshot that
// changes the collection. See [store.MemoryStore.Subscribe] for buffering.
//
// Caller must call [Tracker.Unsubscribe] when done.
func (t *Tracker) Subscribe() <-chan Project {
	return t.projects.Subscribe()
}

// Unsubscribe removes a subscription created by [Tracker.Subscribe].
func (t *Tracker) Unsubscribe(ch <-chan Project) {
	t.projects.Unsubscribe(ch)
}

// check performs one status check for the job owned by h and applies the
// result. It returns true when polling for the job should stop.
func (t *Tracker) check(ctx context.Context, h *poller.Handle) bool {
	jobID := h.JobID()

	start := time.Now()
	project, err := t.source.GetStatus(ctx, jobID)
	elapsed := time.Since(start)

	if err == nil {
		err = validateSnapshot(jobID, &project)
	}

	t.mu.Lock()
	// a result that arrives after cancellation must not touch the collection
	if t.registry.Lookup(jobID) != h || h.Cancelled() {
		t.mu.Unlock()
		t.metrics.ObservePoll(metrics.OutcomeDiscarded, elapsed.Seconds())
		t.logger.Debug("discarding status for cancelled poller", "job_id", jobID)
		return true
	}

	if err != nil {
		t.removeLocked(jobID)
		t.mu.Unlock()
		h.Cancel()

		t.metrics.ObservePoll(metrics.OutcomeError, elapsed.Seconds())
		t.logger.Warn("status check failed, polling stopped",
			"job_id", jobID,
			"latency_ms", elapsed.Milliseconds(),
			"error", err.Error(),
		)
		return true
	}

	result := JobStatus{Project: project, CheckedAt: time.Now()}
	t.projects.Apply(project)

	terminal := result.Terminal()
	if terminal {
		t.removeLocked(jobID)
	}
	t.mu.Unlock()

	if !terminal {
		t.metrics.ObservePoll(metrics.OutcomeOK, elapsed.Seconds())
		t.logger.Debug("status check completed",
			"job_id", jobID,
			"status", project.Status.String(),
			"file_count", project.FileCount,
			"latency_ms", elapsed.Milliseconds(),
		)
		return false
	}

	h.Cancel()
	t.metrics.ObservePoll(metrics.OutcomeTerminal, elapsed.Seconds())
	t.metrics.ObserveTerminal(project.Status.String())

	logAttrs := []any{
		"job_id", jobID,
		"status", project.Status.String(),
		"file_count", project.FileCount,
	}
	if project.Status == StatusError {
		t.logger.Warn("indexing finished with error", logAttrs...)
	} else {
		t.logger.Info("indexing finished", logAttrs...)
	}

	for _, cb := range t.terminalCallbacks {
		invokeCallbackSafe(cb, result, t.logger)
	}
	return true
}

// release runs when a polling loop exits. It drops the registry entry if
// the loop ended without going through check's own cleanup (a panic, or a
// cancelled parent context).
func (t *Tracker) release(h *poller.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.registry.Lookup(h.JobID()) == h {
		t.removeLocked(h.JobID())
	}
}

// removeLocked forgets jobID. t.mu must be held.
func (t *Tracker) removeLocked(jobID string) {
	t.registry.Unregister(jobID)
	delete(t.indexing, jobID)
	t.metrics.SetActive(t.registry.Len())
}

// validateSnapshot checks that a snapshot belongs to jobID and carries a
// known status. An empty id is filled in.
func validateSnapshot(jobID string, p *Project) error {
	if p.ID == "" {
		p.ID = jobID
	}
	if p.ID != jobID {
		return fmt.Errorf("status source returned project %q for job %q", p.ID, jobID)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("status source returned unknown status %q", p.Status)
	}
	return nil
}

// invokeCallbackSafe calls a terminal callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(JobStatus), result JobStatus, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("terminal callback panicked",
				"panic", r,
				"job_id", result.Project.ID,
			)
		}
	}()
	cb(result)
}
