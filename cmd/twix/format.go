package main

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"twix/internal/api"
)

var titleCaser = cases.Title(language.English)

// titleStatus renders backend status strings such as "PROCESSING" or
// "completed" as "Processing" and "Completed".
func titleStatus(status string) string {
	status = strings.TrimSpace(strings.ReplaceAll(status, "_", " "))
	if status == "" {
		return "-"
	}
	return titleCaser.String(strings.ToLower(status))
}

// compactCount formats follower-style counts as 950, 1.2K, or 3.4M.
func compactCount(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return humanize.FtoaWithDigits(float64(n)/1_000_000, 1) + "M"
	case abs >= 1_000:
		return humanize.FtoaWithDigits(float64(n)/1_000, 1) + "K"
	default:
		return humanize.Comma(n)
	}
}

// relativeTime renders a backend timestamp as "3 minutes ago", falling back
// to the raw value when it cannot be parsed.
func relativeTime(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	ts, ok := api.ParseTimestamp(value)
	if !ok {
		return value
	}
	return humanize.RelTime(ts, time.Now(), "ago", "from now")
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-1]) + "…"
}

func progressPercent(p *float64) string {
	if p == nil {
		return "-"
	}
	value := *p
	if value <= 1 {
		value *= 100
	}
	return humanize.FtoaWithDigits(value, 1) + "%"
}

func durationMillis(d time.Duration) string {
	return humanize.Comma(d.Milliseconds()) + " ms"
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
