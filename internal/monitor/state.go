package monitor

// State is the lifecycle position of a polling session.
type State int

const (
	StateUnstarted State = iota
	StatePolling
	StateResolvedSuccess
	StateResolvedFailure
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StatePolling:
		return "polling"
	case StateResolvedSuccess:
		return "resolved_success"
	case StateResolvedFailure:
		return "resolved_failure"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can occur.
func (s State) Terminal() bool {
	return s >= StateResolvedSuccess
}
