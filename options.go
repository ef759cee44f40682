package indexwatch

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// trackerConfig holds mutable state during Tracker construction.
type trackerConfig struct {
	source            StatusSource
	trigger           IndexTrigger
	pollingInterval   time.Duration
	logger            *slog.Logger
	registerer        prometheus.Registerer
	terminalCallbacks []func(JobStatus)
	projects          []Project
}

// Option is a function that configures a [Tracker] instance during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
//
// Built-in options: [WithStatusSource], [WithIndexTrigger], [WithBackend],
// [WithPollingInterval], [WithLogger], [WithMetrics],
// [WithTerminalCallback], [WithProjects].
type Option func(*trackerConfig) error

// Backend is a remote service that can both trigger and report indexing.
type Backend interface {
	StatusSource
	IndexTrigger
}

// WithStatusSource sets the [StatusSource] polled for job status.
//
// A status source is required; [New] fails without one.
//
// Returns an error if the source is nil.
func WithStatusSource(src StatusSource) Option {
	return func(cfg *trackerConfig) error {
		if src == nil {
			return errors.New("status source cannot be nil")
		}
		cfg.source = src
		return nil
	}
}

// WithIndexTrigger sets the [IndexTrigger] used by [Tracker.Index].
//
// Returns an error if the trigger is nil.
func WithIndexTrigger(trigger IndexTrigger) Option {
	return func(cfg *trackerConfig) error {
		if trigger == nil {
			return errors.New("index trigger cannot be nil")
		}
		cfg.trigger = trigger
		return nil
	}
}

// WithBackend sets both the status source and the index trigger.
//
// Example:
//
//	client, _ := backend.NewClient("http://localhost:8000")
//	tr, err := indexwatch.New(indexwatch.WithBackend(client))
func WithBackend(b Backend) Option {
	return func(cfg *trackerConfig) error {
		if b == nil {
			return errors.New("backend cannot be nil")
		}
		cfg.source = b
		cfg.trigger = b
		return nil
	}
}

// WithPollingInterval sets the wait between status checks for a job.
//
// The interval is measured from the end of one check to the start of the
// next. Defaults to 2 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *trackerConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Tracker.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *trackerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithMetrics registers the tracker's Prometheus metrics with reg.
//
// Without this option no metrics are recorded.
//
// Returns an error if reg is nil.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(cfg *trackerConfig) error {
		if reg == nil {
			return errors.New("metrics registerer cannot be nil")
		}
		cfg.registerer = reg
		return nil
	}
}

// WithTerminalCallback registers a function called when a job reaches
// [StatusReady] or [StatusError].
//
// Multiple callbacks may be registered; they execute in registration order
// on the job's polling goroutine after the collection has been updated.
// Panics within callbacks are recovered and logged.
//
// The finished job is released before callbacks run, so a callback may
// call [Tracker.Start] or [Tracker.StopAll].
//
// Nil callbacks are silently ignored.
func WithTerminalCallback(cb func(JobStatus)) Option {
	return func(cfg *trackerConfig) error {
		if cb == nil {
			return nil
		}
		cfg.terminalCallbacks = append(cfg.terminalCallbacks, cb)
		return nil
	}
}

// WithProjects seeds the project collection. Equivalent to calling
// [Tracker.Load] right after [New].
func WithProjects(projects ...Project) Option {
	return func(cfg *trackerConfig) error {
		cfg.projects = append(cfg.projects, projects...)
		return nil
	}
}
