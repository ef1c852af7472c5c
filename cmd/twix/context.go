package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"twix/internal/client"
	"twix/internal/config"
	"twix/internal/health"
	"twix/internal/keystore"
	"twix/internal/logging"
	"twix/internal/monitor"
	"twix/internal/panels"
	"twix/internal/telemetry"
)

type commandContext struct {
	configFlag   *string
	apiURLFlag   *string
	apiKeyFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	stderr io.Writer

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	wiringOnce sync.Once
	wiring     *wiring
	wiringErr  error
}

// wiring holds the dependencies shared by every command that talks to the
// backend.
type wiring struct {
	cfg      *config.Config
	logger   *slog.Logger
	fileKeys *keystore.FileStore
	keys     keystore.Store
	metrics  *telemetry.Metrics
	client   *client.Client
}

func newCommandContext(configFlag, apiURLFlag, apiKeyFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		apiURLFlag:   apiURLFlag,
		apiKeyFlag:   apiKeyFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.apiURLFlag != nil && strings.TrimSpace(*c.apiURLFlag) != "" {
			cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(*c.apiURLFlag), "/")
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureWiring() (*wiring, error) {
	c.wiringOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.wiringErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.wiringErr = fmt.Errorf("init logging: %w", err)
			return
		}

		fileKeys := keystore.NewFileStore(cfg.Auth.KeyFile)
		override := ""
		if c.apiKeyFlag != nil {
			override = strings.TrimSpace(*c.apiKeyFlag)
		}
		if override == "" && fileKeys.Get() == "" {
			override = cfg.Auth.APIKey
		}
		var keys keystore.Store = fileKeys
		if override != "" {
			keys = keystore.NewOverride(override, fileKeys)
		}

		metrics := telemetry.New()
		apiClient, err := client.New(client.Options{
			BaseURL:        cfg.API.BaseURL,
			Timeout:        cfg.RequestTimeout(),
			UserAgent:      cfg.API.UserAgent,
			RateLimit:      cfg.API.RateLimitPerSecond,
			Keys:           keys,
			Logger:         logger,
			Metrics:        metrics,
			OnUnauthorized: c.unauthorized,
		})
		if err != nil {
			c.wiringErr = err
			return
		}
		c.wiring = &wiring{
			cfg:      cfg,
			logger:   logger,
			fileKeys: fileKeys,
			keys:     keys,
			metrics:  metrics,
			client:   apiClient,
		}
	})
	return c.wiring, c.wiringErr
}

// unauthorized is the terminal's version of sending the operator back to the
// login view.
func (c *commandContext) unauthorized() {
	if c.stderr == nil {
		return
	}
	fmt.Fprintln(c.stderr, "Backend rejected the API key; the stored key has been cleared.")
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (r *wiring) monitorOptions() monitor.Options {
	return monitor.Options{
		Interval:    r.cfg.PollInterval(),
		MaxAttempts: r.cfg.Monitor.MaxAttempts,
		Observer:    r.metrics,
		Logger:      r.logger,
	}
}

func (r *wiring) searchPanel() *panels.SearchPanel {
	return panels.NewSearchPanel(r.client, r.monitorOptions(), r.cfg.Defaults.SearchLimit)
}

func (r *wiring) timelinePanel() *panels.TimelinePanel {
	return panels.NewTimelinePanel(r.client, r.monitorOptions(), r.cfg.Defaults.TimelineCount)
}

func (r *wiring) followersPanel() *panels.FollowersPanel {
	return panels.NewFollowersPanel(r.client, r.monitorOptions(), r.cfg.Defaults.FollowCount)
}

func (r *wiring) credentialsPanel() *panels.CredentialsPanel {
	return panels.NewCredentialsPanel(r.client, r.client, r.monitorOptions())
}

func (r *wiring) healthCollector() *health.Collector {
	return health.NewCollector(r.client, r.metrics, r.logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
