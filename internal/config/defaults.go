package config

const (
	defaultBaseURL             = "http://localhost:8000/api/v1"
	defaultTimeoutSeconds      = 30
	defaultRateLimitPerSecond  = 5
	defaultUserAgent           = "twix/dev"
	defaultKeyFile             = "~/.config/twix/api_key.json"
	defaultPollIntervalMillis  = 2000
	defaultMaxAttempts         = 60
	defaultRefreshSeconds      = 30
	defaultSearchLimit         = 10
	defaultTimelineCount       = 50
	defaultFollowCount         = 50
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultConfigFileName      = "twix.toml"
	defaultConfigPathExpansion = "~/.config/twix/config.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:            defaultBaseURL,
			TimeoutSeconds:     defaultTimeoutSeconds,
			RateLimitPerSecond: defaultRateLimitPerSecond,
			UserAgent:          defaultUserAgent,
		},
		Auth: Auth{
			KeyFile: defaultKeyFile,
		},
		Monitor: Monitor{
			PollIntervalMillis: defaultPollIntervalMillis,
			MaxAttempts:        defaultMaxAttempts,
		},
		Dashboard: Dashboard{
			RefreshSeconds: defaultRefreshSeconds,
		},
		Defaults: Defaults{
			SearchLimit:   defaultSearchLimit,
			TimelineCount: defaultTimelineCount,
			FollowCount:   defaultFollowCount,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
