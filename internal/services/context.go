package services

import "context"

type contextKey string

const (
	taskIDKey    contextKey = "task_id"
	panelKey     contextKey = "panel"
	requestIDKey contextKey = "request_id"
)

// WithTaskID annotates context with the backend task identifier.
func WithTaskID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskIDFromContext extracts the backend task identifier if present.
func TaskIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPanel annotates context with the name of the panel that owns a job.
func WithPanel(ctx context.Context, panel string) context.Context {
	if panel == "" {
		return ctx
	}
	return context.WithValue(ctx, panelKey, panel)
}

// PanelFromContext returns the panel name if present.
func PanelFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(panelKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
