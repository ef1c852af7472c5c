package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	if err := c.normalizeAuth(); err != nil {
		return err
	}
	c.normalizeMonitor()
	c.normalizeDashboard()
	c.normalizeDefaults()
	return c.normalizeLogging()
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv("TWIX_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = value
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.API.UserAgent = strings.TrimSpace(c.API.UserAgent)
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeAuth() error {
	if strings.TrimSpace(c.Auth.KeyFile) == "" {
		c.Auth.KeyFile = defaultKeyFile
	}
	var err error
	if c.Auth.KeyFile, err = expandPath(strings.TrimSpace(c.Auth.KeyFile)); err != nil {
		return fmt.Errorf("auth.key_file: %w", err)
	}
	if value, ok := os.LookupEnv("TWIX_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Auth.APIKey = value
	}
	c.Auth.APIKey = strings.TrimSpace(c.Auth.APIKey)
	return nil
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.PollIntervalMillis == 0 {
		c.Monitor.PollIntervalMillis = defaultPollIntervalMillis
	}
	if c.Monitor.MaxAttempts == 0 {
		c.Monitor.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) normalizeDashboard() {
	if c.Dashboard.RefreshSeconds == 0 {
		c.Dashboard.RefreshSeconds = defaultRefreshSeconds
	}
	c.Dashboard.MetricsBind = strings.TrimSpace(c.Dashboard.MetricsBind)
}

func (c *Config) normalizeDefaults() {
	if c.Defaults.SearchLimit == 0 {
		c.Defaults.SearchLimit = defaultSearchLimit
	}
	if c.Defaults.TimelineCount == 0 {
		c.Defaults.TimelineCount = defaultTimelineCount
	}
	if c.Defaults.FollowCount == 0 {
		c.Defaults.FollowCount = defaultFollowCount
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
