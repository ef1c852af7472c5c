package api

import "strings"

// Status strings observed from the backend.
const (
	StatusPending    = "pending"
	StatusRunning    = "running"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "completed"
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "failed"
	StatusFailure    = "FAILED"
)

// StatusClass is the folded lifecycle class of a backend status string.
type StatusClass int

const (
	// ClassInFlight covers pending, running, PROCESSING, and any unknown value.
	ClassInFlight StatusClass = iota
	ClassSuccess
	ClassFailure
)

func (c StatusClass) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassFailure:
		return "failure"
	default:
		return "in_flight"
	}
}

// Terminal reports whether the class ends a polling session.
func (c StatusClass) Terminal() bool {
	return c != ClassInFlight
}

// Classify folds a backend status string. Each lower-case/upper-case pair is
// treated as equivalent; unknown strings keep the session polling.
func Classify(status string) StatusClass {
	switch strings.TrimSpace(status) {
	case StatusCompleted, StatusSuccess:
		return ClassSuccess
	case StatusFailed, StatusFailure:
		return ClassFailure
	default:
		return ClassInFlight
	}
}
