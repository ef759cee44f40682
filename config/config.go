// Package config provides YAML configuration parsing for the indexwatch
// binary.
//
// Example configuration:
//
//	port: 8080
//	poll_interval: 2s
//	log_level: info
//	metrics: true
//
//	backend:
//	  url: ${INDEXWATCH_BACKEND_URL:-http://localhost:8000}
//	  timeout: 10s
//	  rate_limit: 20
//	  burst: 10
//	  headers:
//	    Authorization: Bearer ${INDEXWATCH_TOKEN}
//
//	watch:
//	  - 3f2b9c1e-5a4d-4e8f-9b7a-1c2d3e4f5a6b
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultPollInterval = 2 * time.Second
	defaultBackendURL   = "http://localhost:8000"

	// keeps a misconfigured watcher from hammering the backend
	minPollInterval = 500 * time.Millisecond
	maxPollInterval = time.Hour

	minRequestTimeout = 100 * time.Millisecond
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the delay between status checks of a tracked job.
	// Accepts duration strings like "2s", "500ms". Defaults to 2s.
	PollInterval Duration `yaml:"poll_interval"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// Metrics enables the /metrics endpoint. Defaults to false.
	Metrics bool `yaml:"metrics"`

	// Backend configures the indexing backend client.
	Backend BackendConfig `yaml:"backend"`

	// Watch lists project ids to start tracking on startup.
	Watch []string `yaml:"watch"`
}

// BackendConfig configures the connection to the indexing backend.
type BackendConfig struct {
	// URL is the backend base URL. Defaults to http://localhost:8000.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Timeout is the per-request timeout. Zero keeps the client default.
	Timeout Duration `yaml:"timeout"`

	// RateLimit is the sustained request rate in requests per second.
	// Zero keeps the client default.
	RateLimit float64 `yaml:"rate_limit"`

	// Burst is the limiter burst size. Only used with RateLimit.
	Burst int `yaml:"burst"`

	// Headers are sent with every request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values. An unset variable without a default is an error.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		m := envVarPattern.FindStringSubmatch(match)
		name, hasDefault, def := m[1], m[2] != "", m[3]

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return def
		}
		firstErr = fmt.Errorf("environment variable %q is not set", name)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the backend URL and header values.
// Defaults are applied for Port (8080), PollInterval (2s), LogLevel (info)
// and the backend URL.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaultBackendURL
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	pi := c.PollInterval.Duration()
	if pi < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, pi)
	}
	if pi > maxPollInterval {
		return fmt.Errorf("poll_interval must not exceed %s, got %s", maxPollInterval, pi)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if err := c.Backend.expandAndValidate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Watch))
	for i, id := range c.Watch {
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("watch[%d]: project id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("watch[%d]: duplicate project id %q", i, id)
		}
		seen[id] = struct{}{}
		c.Watch[i] = id
	}

	return nil
}

func (b *BackendConfig) expandAndValidate() error {
	expanded, err := expandEnvVars(b.URL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	b.URL = expanded

	u, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return errors.New("url must have a scheme (http:// or https://)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must include a host")
	}

	for k, v := range b.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		b.Headers[k] = expanded
	}

	if b.Timeout != 0 && b.Timeout.Duration() < minRequestTimeout {
		return fmt.Errorf("timeout must be at least %s if specified, got %s", minRequestTimeout, b.Timeout.Duration())
	}

	if b.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %g", b.RateLimit)
	}
	if b.Burst < 0 {
		return fmt.Errorf("burst cannot be negative, got %d", b.Burst)
	}
	if b.Burst > 0 && b.RateLimit == 0 {
		return errors.New("burst requires rate_limit")
	}

	return nil
}
