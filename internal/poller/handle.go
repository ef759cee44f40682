package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CheckFunc performs one status check for a job.
//
// It returns true when polling should stop, either because a terminal
// status was observed or because the check failed.
type CheckFunc func(ctx context.Context) (stop bool)

// Config holds the parameters of a single polling [Handle].
type Config struct {
	// JobID identifies the job being polled.
	JobID string

	// Interval is the wait between the end of one check and the start of
	// the next. The first check runs one interval after [Handle.Start].
	Interval time.Duration

	// Check performs a single status check.
	Check CheckFunc

	// OnExit is called once from the polling goroutine after the loop ends,
	// whatever the reason. May be nil.
	OnExit func(*Handle)

	// Logger records recovered panics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Handle owns the recurring status checks for a single job.
//
// A Handle runs at most one check at a time: the next check is scheduled
// only after the previous one has returned, so results for a job are
// always produced in the order their checks were issued.
//
// Once cancelled a Handle never runs another check and cannot be restarted.
// All methods are safe for concurrent use.
type Handle struct {
	jobID    string
	interval time.Duration
	check    CheckFunc
	onExit   func(*Handle)
	logger   *slog.Logger

	mu        sync.Mutex
	started   bool
	cancelled bool
	cancel    context.CancelFunc
	done      chan struct{}
	doneOnce  sync.Once
}

// NewHandle creates a polling [Handle]. The handle is idle until
// [Handle.Start] is called.
func NewHandle(cfg Config) *Handle {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		jobID:    cfg.JobID,
		interval: cfg.Interval,
		check:    cfg.Check,
		onExit:   cfg.OnExit,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// JobID returns the id of the job this handle polls.
func (h *Handle) JobID() string {
	return h.jobID
}

// Start begins the polling loop in a background goroutine.
//
// If ctx is nil, context.Background() is used. Start is a no-op if the
// handle was already started or has been cancelled.
func (h *Handle) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started || h.cancelled {
		h.mu.Unlock()
		return
	}
	h.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.mu.Unlock()

	go h.run(loopCtx)
}

// Cancel stops all future checks.
//
// A check already in flight sees its context cancelled but is not waited
// for; see [Handle.Wait]. Cancel is idempotent and safe to call after the
// handle has stopped on its own.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancelled {
		return
	}
	h.cancelled = true

	if h.cancel != nil {
		h.cancel()
	}
	if !h.started {
		// no goroutine will ever close done
		h.doneOnce.Do(func() { close(h.done) })
	}
}

// Cancelled reports whether the handle has been cancelled.
func (h *Handle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Done returns a channel that is closed once the polling goroutine has
// exited, or immediately on cancellation of a handle that was never started.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the polling goroutine has exited.
func (h *Handle) Wait() {
	<-h.done
}

func (h *Handle) run(ctx context.Context) {
	defer h.doneOnce.Do(func() { close(h.done) })
	defer func() {
		if h.onExit != nil {
			h.onExit(h)
		}
	}()
	defer h.Cancel()

	timer := time.NewTimer(h.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if h.safeCheck(ctx) {
			return
		}

		// schedule the next check only now that this one has completed
		timer.Reset(h.interval)
	}
}

// safeCheck runs the check with panic recovery. A panicking check stops
// the loop; the stack trace is logged with a correlation ID.
func (h *Handle) safeCheck(ctx context.Context) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			h.logger.Error("status check panic",
				"correlation_id", correlationID,
				"job_id", h.jobID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			stop = true
		}
	}()
	return h.check(ctx)
}
