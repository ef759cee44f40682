package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.PollInterval.Duration() != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval.Duration())
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %q, want http://localhost:8000", cfg.Backend.URL)
	}
	if cfg.Metrics {
		t.Error("Metrics should default to false")
	}
	if len(cfg.Watch) != 0 {
		t.Errorf("len(Watch) = %d, want 0", len(cfg.Watch))
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
port: 9090
poll_interval: 5s
log_level: debug
metrics: true

backend:
  url: https://indexer.internal:8443
  timeout: 3s
  rate_limit: 5
  burst: 2
  headers:
    Authorization: Bearer token123

watch:
  - p1
  - " p2 "
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.PollInterval.Duration() != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval.Duration())
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if !cfg.Metrics {
		t.Error("Metrics = false, want true")
	}

	b := cfg.Backend
	if b.URL != "https://indexer.internal:8443" {
		t.Errorf("Backend.URL = %q", b.URL)
	}
	if b.Timeout.Duration() != 3*time.Second {
		t.Errorf("Backend.Timeout = %v, want 3s", b.Timeout.Duration())
	}
	if b.RateLimit != 5 || b.Burst != 2 {
		t.Errorf("rate limit = %g/%d, want 5/2", b.RateLimit, b.Burst)
	}
	if b.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Headers[Authorization] = %q", b.Headers["Authorization"])
	}

	want := []string{"p1", "p2"}
	if len(cfg.Watch) != len(want) {
		t.Fatalf("Watch = %v, want %v", cfg.Watch, want)
	}
	for i := range want {
		if cfg.Watch[i] != want[i] {
			t.Errorf("Watch[%d] = %q, want %q", i, cfg.Watch[i], want[i])
		}
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_BACKEND_HOST", "indexer.test")
	t.Setenv("TEST_API_TOKEN", "secret123")

	yaml := `
backend:
  url: http://${TEST_BACKEND_HOST}:8000
  headers:
    Authorization: "Bearer ${TEST_API_TOKEN}"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Backend.URL != "http://indexer.test:8000" {
		t.Errorf("URL = %q, want http://indexer.test:8000", cfg.Backend.URL)
	}
	if cfg.Backend.Headers["Authorization"] != "Bearer secret123" {
		t.Errorf("Headers[Authorization] = %q, want 'Bearer secret123'", cfg.Backend.Headers["Authorization"])
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	// INDEXWATCH_UNSET_URL is expected to not exist in the environment
	yaml := `
backend:
  url: ${INDEXWATCH_UNSET_URL:-http://fallback:8000}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Backend.URL != "http://fallback:8000" {
		t.Errorf("URL = %q, want http://fallback:8000", cfg.Backend.URL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `
backend:
  headers:
    Authorization: Bearer ${INDEXWATCH_MISSING_TOKEN}
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "INDEXWATCH_MISSING_TOKEN") {
		t.Errorf("error should mention INDEXWATCH_MISSING_TOKEN: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "negative port",
			yaml:        `port: -1`,
			wantErrLike: "port must be between",
		},
		{
			name:        "port too large",
			yaml:        `port: 70000`,
			wantErrLike: "port must be between",
		},
		{
			name:        "poll interval too short",
			yaml:        `poll_interval: 100ms`,
			wantErrLike: "poll_interval must be at least",
		},
		{
			name:        "poll interval too long",
			yaml:        `poll_interval: 2h`,
			wantErrLike: "poll_interval must not exceed",
		},
		{
			name:        "unknown log level",
			yaml:        `log_level: verbose`,
			wantErrLike: "log_level must be",
		},
		{
			name: "backend without scheme",
			yaml: `
backend:
  url: localhost:8000
`,
			wantErrLike: "backend: url",
		},
		{
			name: "backend ftp scheme",
			yaml: `
backend:
  url: ftp://localhost
`,
			wantErrLike: "url scheme must be http or https",
		},
		{
			name: "backend timeout too small",
			yaml: `
backend:
  timeout: 10ms
`,
			wantErrLike: "timeout must be at least",
		},
		{
			name: "negative rate limit",
			yaml: `
backend:
  rate_limit: -1
`,
			wantErrLike: "rate_limit cannot be negative",
		},
		{
			name: "burst without rate limit",
			yaml: `
backend:
  burst: 5
`,
			wantErrLike: "burst requires rate_limit",
		},
		{
			name: "empty watch id",
			yaml: `
watch:
  - ""
`,
			wantErrLike: "watch[0]: project id is required",
		},
		{
			name: "duplicate watch id",
			yaml: `
watch:
  - p1
  - p1
`,
			wantErrLike: `watch[1]: duplicate project id "p1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("port: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("poll_interval: soon"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexwatch.yaml")
	if err := os.WriteFile(path, []byte("port: 9191\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.Port)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := &Config{LogLevel: level}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}
