package api

import (
	"slices"
	"strconv"
	"strings"
)

// CountKind identifies which result-count selection applies.
type CountKind string

const (
	CountSearch   CountKind = "search"
	CountTimeline CountKind = "timeline"
	CountFollow   CountKind = "follow"
)

var allowedCounts = map[CountKind][]int{
	CountSearch:   {5, 10, 20, 50},
	CountTimeline: {10, 25, 50, 100},
	CountFollow:   {25, 50, 100, 200},
}

// AllowedCounts returns the selectable result counts for kind.
func AllowedCounts(kind CountKind) []int {
	return slices.Clone(allowedCounts[kind])
}

// CountAllowed reports whether n is a valid selection for kind.
func CountAllowed(kind CountKind, n int) bool {
	return slices.Contains(allowedCounts[kind], n)
}

// FormatCounts renders the allowed selections as "5, 10, 20, 50".
func FormatCounts(kind CountKind) string {
	values := allowedCounts[kind]
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
