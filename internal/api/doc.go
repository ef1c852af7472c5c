// Package api defines the wire-format types exchanged with the scraper backend
// and the normalizers that turn its loosely shaped payloads into stable view
// models.
//
// # Key Types
//
// Response: the { data, message, task_id } envelope most endpoints return.
//
// TaskHandle / TaskStatus: the job handle returned on submission and the status
// snapshot returned by each poll.
//
// HealthResponse, TasksOverview, ActiveTasks, TasksHistory: dashboard payloads.
//
// # Status Vocabulary
//
// The backend reports task states in two casings ("completed"/"SUCCESS",
// "failed"/"FAILED") and mixes in "pending", "running", and "PROCESSING".
// Classify folds them into three classes so callers never compare raw strings.
//
// # Normalization
//
// NormalizeUsers and NormalizeTimeline accept every result shape the backend has
// been observed to produce and map drifting key names (screen_name vs username,
// followers vs followers_count, ...) onto one User and one Timeline model.
// Missing optional fields take zero values; malformed entries are skipped
// rather than failing the whole result.
package api
