package services_test

import (
	"errors"
	"strings"
	"testing"

	"twix/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrSubmission, "client", "search users", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSubmission) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"client", "search users", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err)
	}
}

func TestFailureKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{services.Wrap(services.ErrTimeout, "monitor", "poll", "gave up", nil), "timeout"},
		{services.Wrap(services.ErrTaskFailed, "monitor", "poll", "boom", nil), "task_failed"},
		{services.Wrap(services.ErrValidation, "panel", "search", "empty name", nil), "validation"},
		{services.Wrap(services.ErrJobActive, "panel", "search", "busy", nil), "busy"},
		{services.Wrap(services.ErrTransport, "client", "status", "reset", nil), "transport"},
		{services.Wrap(services.ErrSubmission, "client", "login", "500", nil), "submission"},
		{errors.New("plain"), "error"},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.want {
			t.Fatalf("FailureKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}

	both := services.Wrap(services.ErrUnauthorized, "client", "login", "401", services.ErrSubmission)
	if got := services.FailureKind(both); got != "unauthorized" {
		t.Fatalf("expected unauthorized to take precedence, got %q", got)
	}
}
