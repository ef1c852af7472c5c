package api

import (
	"encoding/json"
	"time"
)

// Response is the standard backend envelope.
type Response[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	TaskID  string `json:"task_id,omitempty"`
}

// TaskHandle is the payload returned when the backend accepts a job.
type TaskHandle struct {
	TaskID string `json:"task_id"`
}

// TaskStatus is one snapshot of a job's lifecycle as reported by the backend.
type TaskStatus struct {
	TaskID    string          `json:"task_id"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Progress  *float64        `json:"progress,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// Class folds the status string into in-flight, success, or failure.
func (s TaskStatus) Class() StatusClass {
	return Classify(s.Status)
}

// ResultPayload returns the nested result when present, otherwise the whole
// snapshot re-encoded as JSON.
func (s TaskStatus) ResultPayload() json.RawMessage {
	if len(s.Result) > 0 && string(s.Result) != "null" {
		return s.Result
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return raw
}

// Credentials is the body used to create or update a stored scraping account.
type Credentials struct {
	CredentialName string `json:"credential_name"`
	Username       string `json:"username"`
	Password       string `json:"password"`
}

// Settings is a stored credential as returned by the backend. Passwords are
// never echoed.
type Settings struct {
	ID             string `json:"id"`
	CredentialName string `json:"credential_name"`
	Username       string `json:"username"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// LoginRequest starts a scraper login for a stored credential.
type LoginRequest struct {
	CredentialName string `json:"credential_name"`
}

// SearchUsersRequest starts a user search.
type SearchUsersRequest struct {
	Name  string `json:"name"`
	Limit int    `json:"limit,omitempty"`
}

// TasksOverview aggregates worker and queue state.
type TasksOverview struct {
	ActiveTasks     []TaskStatus           `json:"active_tasks"`
	ScheduledTasks  []TaskStatus           `json:"scheduled_tasks"`
	RegisteredTasks []string               `json:"registered_tasks"`
	WorkerStats     map[string]WorkerStats `json:"worker_stats"`
	Summary         TasksSummary           `json:"summary"`
}

// TasksSummary holds the counters shown on the status dashboard.
type TasksSummary struct {
	ActiveCount    int `json:"active_count"`
	ScheduledCount int `json:"scheduled_count"`
	WorkersCount   int `json:"workers_count"`
}

// WorkerStats is the subset of per-worker statistics twix renders.
type WorkerStats struct {
	Pool   WorkerPool      `json:"pool"`
	Total  json.RawMessage `json:"total,omitempty"`
	Rusage WorkerRusage    `json:"rusage"`
	Clock  string          `json:"clock"`
}

// WorkerPool describes a worker's process pool.
type WorkerPool struct {
	Implementation string `json:"implementation"`
	MaxConcurrency int    `json:"max-concurrency"`
	Processes      []int  `json:"processes"`
}

// WorkerRusage carries resource usage counters for a worker.
type WorkerRusage struct {
	UTime  float64 `json:"utime"`
	STime  float64 `json:"stime"`
	MaxRSS int64   `json:"maxrss"`
}

// ActiveTasks lists in-flight jobs.
type ActiveTasks struct {
	Count int          `json:"count"`
	Tasks []TaskStatus `json:"tasks"`
}

// TasksHistory summarizes finished jobs.
type TasksHistory struct {
	Completed   int          `json:"completed"`
	Failed      int          `json:"failed"`
	Total       int          `json:"total"`
	RecentTasks []TaskStatus `json:"recent_tasks"`
}

// HealthResponse is the health endpoint envelope; it differs from Response.
type HealthResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Data    HealthData `json:"data"`
}

// HealthData is the nested health snapshot.
type HealthData struct {
	Status         string          `json:"status"`
	Timestamp      string          `json:"timestamp"`
	OverallHealth  string          `json:"overall_health"`
	Services       []HealthService `json:"services"`
	System         HealthSystem    `json:"system"`
	Details        HealthDetails   `json:"details"`
	ResponseTimeMS float64         `json:"response_time_ms"`
}

// HealthService reports one dependency checked by the backend.
type HealthService struct {
	ServiceName    string         `json:"service_name"`
	Status         string         `json:"status"`
	Message        string         `json:"message"`
	ResponseTimeMS float64        `json:"response_time_ms"`
	LastCheck      string         `json:"last_check"`
	Details        map[string]any `json:"details,omitempty"`
}

// HealthSystem carries host statistics from the backend.
type HealthSystem struct {
	UptimeSeconds      float64 `json:"uptime_seconds"`
	MemoryUsageMB      float64 `json:"memory_usage_mb"`
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	DiskUsagePercent   float64 `json:"disk_usage_percent"`
	PythonVersion      string  `json:"python_version"`
	ApplicationVersion string  `json:"application_version"`
}

// HealthDetails counts service states.
type HealthDetails struct {
	TotalServicesChecked int    `json:"total_services_checked"`
	HealthyServices      int    `json:"healthy_services"`
	DegradedServices     int    `json:"degraded_services"`
	UnhealthyServices    int    `json:"unhealthy_services"`
	Environment          string `json:"environment"`
	DebugMode            bool   `json:"debug_mode"`
	APIVersion           string `json:"api_version"`
}

// ParseTimestamp accepts the timestamp layouts the backend emits. Zero time and
// false are returned for empty or unparseable input.
func ParseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05",
		time.RubyDate,
		"Mon Jan 02 15:04:05 -0700 2006",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
