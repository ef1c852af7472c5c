package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"twix/internal/api"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", c.API.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", c.API.BaseURL)
	}
	if c.API.RateLimitPerSecond < 0 {
		return errors.New("api.rate_limit_per_second must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.PollIntervalMillis < 0 {
		return errors.New("monitor.poll_interval_ms must be positive")
	}
	if c.Monitor.MaxAttempts < 0 {
		return errors.New("monitor.max_attempts must be positive")
	}
	return nil
}

func (c *Config) validateDashboard() error {
	if c.Dashboard.RefreshSeconds < 0 {
		return errors.New("dashboard.refresh_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDefaults() error {
	checks := []struct {
		key   string
		kind  api.CountKind
		value int
	}{
		{"defaults.search_limit", api.CountSearch, c.Defaults.SearchLimit},
		{"defaults.timeline_count", api.CountTimeline, c.Defaults.TimelineCount},
		{"defaults.follow_count", api.CountFollow, c.Defaults.FollowCount},
	}
	for _, check := range checks {
		if !api.CountAllowed(check.kind, check.value) {
			return fmt.Errorf("%s must be one of %s, got %d", check.key, api.FormatCounts(check.kind), check.value)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
