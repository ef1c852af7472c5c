package health

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"twix/internal/api"
	"twix/internal/logging"
	"twix/internal/telemetry"
)

// Status labels used across the dashboard.
const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
)

// Backend is the subset of the API client the collector reads.
type Backend interface {
	Health(ctx context.Context) (api.HealthResponse, error)
	TasksOverview(ctx context.Context) (api.TasksOverview, error)
	TasksHistory(ctx context.Context) (api.TasksHistory, error)
}

// APIStatus is the result of the timed health probe.
type APIStatus struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

// Workers summarizes the task queue. Online is false when the overview call
// failed.
type Workers struct {
	Online    bool   `json:"online"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Workers   int    `json:"workers"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

// Snapshot is one refresh of the dashboard.
type Snapshot struct {
	CheckedAt time.Time         `json:"checked_at"`
	API       APIStatus         `json:"api"`
	Backend   *api.HealthData   `json:"backend,omitempty"`
	Workers   Workers           `json:"workers"`
	Overview  api.TasksOverview `json:"-"`
}

// Overall folds the snapshot into online, degraded, or offline.
func (s Snapshot) Overall() string {
	if s.API.Status != StatusOnline {
		return StatusOffline
	}
	if !s.Workers.Online {
		return StatusDegraded
	}
	if s.Backend != nil {
		switch strings.ToLower(strings.TrimSpace(s.Backend.Status)) {
		case "", "healthy", "ok", "online":
		default:
			return StatusDegraded
		}
	}
	return StatusOnline
}

// Collector gathers snapshots.
type Collector struct {
	backend Backend
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewCollector builds a collector. metrics and logger may be nil.
func NewCollector(backend Backend, metrics *telemetry.Metrics, logger *slog.Logger) *Collector {
	return &Collector{
		backend: backend,
		metrics: metrics,
		logger:  logging.NewComponentLogger(logger, "health"),
		now:     time.Now,
	}
}

// Snapshot queries the backend concurrently. Individual failures degrade the
// affected fields and never abort the snapshot.
func (c *Collector) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{CheckedAt: c.now()}

	var (
		wg        sync.WaitGroup
		health    api.HealthResponse
		healthErr error
		elapsed   time.Duration
		overview  api.TasksOverview
		ovErr     error
		history   api.TasksHistory
		histErr   error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		start := time.Now()
		health, healthErr = c.backend.Health(ctx)
		elapsed = time.Since(start)
	}()
	go func() {
		defer wg.Done()
		overview, ovErr = c.backend.TasksOverview(ctx)
	}()
	go func() {
		defer wg.Done()
		history, histErr = c.backend.TasksHistory(ctx)
	}()
	wg.Wait()

	if healthErr != nil {
		snap.API = APIStatus{Status: StatusOffline, Error: healthErr.Error()}
		logging.WarnWithContext(c.logger, "health probe failed", "health_probe_failed",
			logging.Error(healthErr),
			logging.String(logging.FieldErrorHint, "check api.base_url and that the backend is running"),
		)
	} else {
		snap.API = APIStatus{Status: StatusOnline, ResponseTime: elapsed}
		data := health.Data
		snap.Backend = &data
	}
	c.metrics.SetBackendUp(healthErr == nil)

	if ovErr != nil {
		snap.Workers.Error = ovErr.Error()
		c.logger.Debug("tasks overview unavailable", logging.Error(ovErr))
	} else {
		snap.Overview = overview
		snap.Workers.Online = true
		snap.Workers.Active = overview.Summary.ActiveCount
		snap.Workers.Scheduled = overview.Summary.ScheduledCount
		snap.Workers.Workers = overview.Summary.WorkersCount
		if snap.Workers.Workers == 0 {
			snap.Workers.Workers = len(overview.WorkerStats)
		}
	}
	if histErr != nil {
		c.logger.Debug("tasks history unavailable", logging.Error(histErr))
	} else {
		snap.Workers.Completed = history.Completed
		snap.Workers.Failed = history.Failed
		snap.Workers.Total = history.Total
		if snap.Workers.Total == 0 {
			snap.Workers.Total = history.Completed + history.Failed
		}
	}
	return snap
}

// Watch delivers a snapshot immediately and then every interval until ctx is
// done.
func (c *Collector) Watch(ctx context.Context, interval time.Duration, fn func(Snapshot)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	fn(c.Snapshot(ctx))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(c.Snapshot(ctx))
		}
	}
}
