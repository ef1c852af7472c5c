package testsupport

import (
	"path/filepath"
	"testing"

	"twix/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp key file per test and a
// fast poll interval. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Auth.KeyFile = filepath.Join(base, "auth", "api_key.json")
	cfgVal.API.RateLimitPerSecond = 0
	cfgVal.Monitor.PollIntervalMillis = 5
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend points the config at a fake backend.
func WithBackend(b *Backend) ConfigOption {
	return func(cb *configBuilder) {
		cb.cfg.API.BaseURL = b.URL()
	}
}

// WithMaxAttempts overrides the poll attempt ceiling.
func WithMaxAttempts(n int) ConfigOption {
	return func(cb *configBuilder) {
		cb.cfg.Monitor.MaxAttempts = n
	}
}

// WithAPIKey seeds the config's api key.
func WithAPIKey(key string) ConfigOption {
	return func(cb *configBuilder) {
		cb.cfg.Auth.APIKey = key
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Auth.KeyFile))
}
