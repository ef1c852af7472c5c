// Package health assembles the status dashboard: API reachability with probe
// latency, the backend's own service report, and worker pool statistics.
package health
