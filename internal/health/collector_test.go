package health_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"twix/internal/api"
	"twix/internal/client"
	"twix/internal/health"
	"twix/internal/keystore"
	"twix/internal/telemetry"
	"twix/internal/testsupport"
)

func newCollector(t *testing.T) (*testsupport.Backend, *health.Collector, *telemetry.Metrics) {
	t.Helper()
	backend := testsupport.NewBackend(t)
	c, err := client.New(client.Options{BaseURL: backend.URL(), Keys: keystore.NewMemoryStore("")})
	require.NoError(t, err)
	metrics := telemetry.New()
	return backend, health.NewCollector(c, metrics, nil), metrics
}

func TestSnapshotCombinesSources(t *testing.T) {
	backend, collector, metrics := newCollector(t)
	backend.SetTasks(
		api.TasksOverview{Summary: api.TasksSummary{ActiveCount: 3, ScheduledCount: 1, WorkersCount: 2}},
		api.ActiveTasks{},
		api.TasksHistory{Completed: 40, Failed: 2},
	)

	snap := collector.Snapshot(context.Background())
	require.Equal(t, health.StatusOnline, snap.API.Status)
	require.Positive(t, snap.API.ResponseTime)
	require.NotNil(t, snap.Backend)
	require.Equal(t, "healthy", snap.Backend.Status)
	require.True(t, snap.Workers.Online)
	require.Equal(t, 3, snap.Workers.Active)
	require.Equal(t, 2, snap.Workers.Workers)
	require.Equal(t, 40, snap.Workers.Completed)
	require.Equal(t, 42, snap.Workers.Total)
	require.Equal(t, health.StatusOnline, snap.Overall())
	require.InDelta(t, 1, testutil.ToFloat64(metrics.HealthUp), 0)
}

func TestSnapshotDegradesOnPartialFailure(t *testing.T) {
	backend, collector, _ := newCollector(t)
	backend.FailNext("/tasks/", http.StatusInternalServerError)

	snap := collector.Snapshot(context.Background())
	require.Equal(t, health.StatusOnline, snap.API.Status)
	require.False(t, snap.Workers.Online)
	require.NotEmpty(t, snap.Workers.Error)
	require.Equal(t, health.StatusDegraded, snap.Overall())
}

func TestSnapshotOfflineWhenProbeFails(t *testing.T) {
	backend, collector, metrics := newCollector(t)
	backend.Close()

	snap := collector.Snapshot(context.Background())
	require.Equal(t, health.StatusOffline, snap.API.Status)
	require.Nil(t, snap.Backend)
	require.Equal(t, health.StatusOffline, snap.Overall())
	require.InDelta(t, 0, testutil.ToFloat64(metrics.HealthUp), 0)
}

func TestOverallReflectsBackendStatus(t *testing.T) {
	snap := health.Snapshot{
		API:     health.APIStatus{Status: health.StatusOnline},
		Workers: health.Workers{Online: true},
		Backend: &api.HealthData{Status: "unhealthy"},
	}
	require.Equal(t, health.StatusDegraded, snap.Overall())
	snap.Backend.Status = "Healthy"
	require.Equal(t, health.StatusOnline, snap.Overall())
}

type countingBackend struct {
	calls atomic.Int32
}

func (b *countingBackend) Health(context.Context) (api.HealthResponse, error) {
	b.calls.Add(1)
	return api.HealthResponse{}, nil
}

func (b *countingBackend) TasksOverview(context.Context) (api.TasksOverview, error) {
	return api.TasksOverview{}, errors.New("celery down")
}

func (b *countingBackend) TasksHistory(context.Context) (api.TasksHistory, error) {
	return api.TasksHistory{}, nil
}

func TestWatchRefreshesUntilCancelled(t *testing.T) {
	backend := &countingBackend{}
	collector := health.NewCollector(backend, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var seen atomic.Int32
	err := collector.Watch(ctx, 5*time.Millisecond, func(snap health.Snapshot) {
		if !snap.Workers.Online && seen.Add(1) == 3 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.GreaterOrEqual(t, backend.calls.Load(), int32(3))
}
