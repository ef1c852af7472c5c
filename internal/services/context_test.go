package services_test

import (
	"context"
	"testing"

	"twix/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTaskID(ctx, "abc123")
	ctx = services.WithPanel(ctx, "search")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.TaskIDFromContext(ctx); !ok || id != "abc123" {
		t.Fatalf("unexpected task id: %v %v", id, ok)
	}
	if panel, ok := services.PanelFromContext(ctx); !ok || panel != "search" {
		t.Fatalf("unexpected panel: %v %v", panel, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPanel(ctx, "")
	ctx = services.WithTaskID(ctx, "")
	if _, ok := services.PanelFromContext(ctx); ok {
		t.Fatal("expected no panel value")
	}
	if _, ok := services.TaskIDFromContext(ctx); ok {
		t.Fatal("expected no task id value")
	}
}
