package config

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/indexwatch"
	"github.com/jpalmerr/indexwatch/backend"
)

// BuildClient converts the backend section into a [backend.Client].
// Zero values keep the client defaults.
func BuildClient(cfg *Config) (*backend.Client, error) {
	var opts []backend.Option

	if cfg.Backend.Timeout != 0 {
		opts = append(opts, backend.WithTimeout(cfg.Backend.Timeout.Duration()))
	}

	if cfg.Backend.RateLimit > 0 {
		burst := cfg.Backend.Burst
		if burst == 0 {
			burst = 1
		}
		opts = append(opts, backend.WithRateLimit(cfg.Backend.RateLimit, burst))
	}

	if len(cfg.Backend.Headers) > 0 {
		opts = append(opts, backend.WithHeaders(cfg.Backend.Headers))
	}

	client, err := backend.NewClient(cfg.Backend.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend client: %w", err)
	}
	return client, nil
}

// BuildOptions converts parsed configuration into tracker options.
//
// b serves both status checks and index triggers. reg is only used when
// metrics are enabled and may be nil otherwise.
func BuildOptions(cfg *Config, b indexwatch.Backend, logger *slog.Logger, reg prometheus.Registerer) []indexwatch.Option {
	opts := []indexwatch.Option{
		indexwatch.WithBackend(b),
		indexwatch.WithPollingInterval(cfg.PollInterval.Duration()),
	}

	if logger != nil {
		opts = append(opts, indexwatch.WithLogger(logger))
	}

	if cfg.Metrics && reg != nil {
		opts = append(opts, indexwatch.WithMetrics(reg))
	}

	return opts
}
