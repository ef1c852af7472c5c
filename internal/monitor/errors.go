package monitor

import (
	"errors"
	"fmt"
	"time"

	"twix/internal/services"
)

const (
	// DefaultFailureMessage is delivered when a failed snapshot carries no error text.
	DefaultFailureMessage = "task failed"
	// FetchFailureMessage prefixes errors from a status query that could not complete.
	FetchFailureMessage = "failed to fetch task status"
)

// ErrCancelled is returned by Wait when the session was cancelled before a
// terminal status arrived.
var ErrCancelled = errors.New("task monitoring cancelled")

// TaskError reports a backend-side task failure.
type TaskError struct {
	TaskID  string
	Message string
}

func (e *TaskError) Error() string {
	return e.Message
}

func (e *TaskError) Unwrap() error {
	return services.ErrTaskFailed
}

// TimeoutError reports that the attempt ceiling was reached while the task was
// still in flight.
type TimeoutError struct {
	TaskID   string
	Attempts int
	Waited   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stopped waiting for task %s after %d status checks (%s); the job may still be running",
		e.TaskID, e.Attempts, e.Waited.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() error {
	return services.ErrTimeout
}

// FetchError wraps a status query that failed at the transport or decode level.
type FetchError struct {
	TaskID string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return FetchFailureMessage
	}
	return FetchFailureMessage + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrTransport}
	}
	return []error{services.ErrTransport, e.Err}
}
