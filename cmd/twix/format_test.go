package main

import (
	"strings"
	"testing"
	"time"
)

func TestCompactCount(t *testing.T) {
	cases := map[int64]string{
		0:         "0",
		950:       "950",
		1500:      "1.5K",
		2000:      "2K",
		3_400_000: "3.4M",
	}
	for input, want := range cases {
		if got := compactCount(input); got != want {
			t.Fatalf("compactCount(%d) = %q, want %q", input, got, want)
		}
	}
}

func TestTitleStatus(t *testing.T) {
	cases := map[string]string{
		"PROCESSING": "Processing",
		"completed":  "Completed",
		"in_flight":  "In Flight",
		"  ":         "-",
	}
	for input, want := range cases {
		if got := titleStatus(input); got != want {
			t.Fatalf("titleStatus(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncate result %q", got)
	}
	got := truncate("a  very\nlong   bio line", 8)
	if got != "a very …" {
		t.Fatalf("unexpected truncate result %q", got)
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "" {
		t.Fatalf("expected empty mask, got %q", got)
	}
	if got := maskKey("abc"); got != "***" {
		t.Fatalf("expected short key fully masked, got %q", got)
	}
	if got := maskKey("secret-1234"); got != "*******1234" {
		t.Fatalf("unexpected mask %q", got)
	}
}

func TestProgressPercent(t *testing.T) {
	half := 0.5
	whole := 75.0
	if got := progressPercent(&half); got != "50%" {
		t.Fatalf("unexpected fraction rendering %q", got)
	}
	if got := progressPercent(&whole); got != "75%" {
		t.Fatalf("unexpected percent rendering %q", got)
	}
	if got := progressPercent(nil); got != "-" {
		t.Fatalf("expected dash for missing progress, got %q", got)
	}
}

func TestRelativeTime(t *testing.T) {
	past := time.Now().Add(-3 * time.Minute).UTC().Format(time.RFC3339)
	if got := relativeTime(past); !strings.HasSuffix(got, "ago") {
		t.Fatalf("expected relative past time, got %q", got)
	}
	if got := relativeTime("not a time"); got != "not a time" {
		t.Fatalf("expected raw fallback, got %q", got)
	}
	if got := relativeTime(""); got != "-" {
		t.Fatalf("expected dash, got %q", got)
	}
}
