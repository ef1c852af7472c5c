package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"twix/internal/api"
	"twix/internal/logging"
	"twix/internal/services"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 60
)

// StatusFetcher issues one task status query.
type StatusFetcher interface {
	TaskStatus(ctx context.Context, taskID string) (api.TaskStatus, error)
}

// Observer receives session lifecycle events. telemetry.Metrics satisfies it.
type Observer interface {
	SessionStarted(taskID string)
	Polled(taskID string, attempt int)
	SessionEnded(taskID string, outcome string)
}

// Callbacks are invoked from the session's timer goroutine. At most one of
// OnComplete and OnError runs per session.
type Callbacks struct {
	OnComplete func(result json.RawMessage)
	OnError    func(err error)
	// OnUpdate sees every in-flight snapshot before the next poll is scheduled.
	OnUpdate func(status api.TaskStatus, attempt int)
}

// Options configures polling cadence.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	Observer    Observer
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	o.Logger = logging.NewComponentLogger(o.Logger, "monitor")
	return o
}

// Monitor tracks one task at a time.
type Monitor struct {
	fetcher StatusFetcher
	opts    Options

	mu      sync.Mutex
	current *Session
}

// New builds a Monitor around fetcher.
func New(fetcher StatusFetcher, opts Options) *Monitor {
	return &Monitor{fetcher: fetcher, opts: opts.withDefaults()}
}

// Start begins a fresh session for taskID, cancelling any session this monitor
// already owns. The first status query is issued without delay. Cancelling ctx
// cancels the session silently.
func (m *Monitor) Start(ctx context.Context, taskID string, cb Callbacks) (*Session, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, services.Wrap(services.ErrValidation, "monitor", "start", "task id is required", nil)
	}
	if m.fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "monitor", "start", "status fetcher is required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	previous := m.current
	s := newSession(ctx, m.fetcher, taskID, m.opts, cb)
	m.current = s
	m.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}
	s.begin(ctx)
	return s, nil
}

// Current returns the most recently started session, or nil.
func (m *Monitor) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Active reports whether the current session is still polling.
func (m *Monitor) Active() bool {
	s := m.Current()
	return s != nil && !s.State().Terminal()
}

// Cancel stops the current session without invoking callbacks. It reports
// whether a live session was cancelled.
func (m *Monitor) Cancel() bool {
	s := m.Current()
	if s == nil {
		return false
	}
	return s.Cancel()
}

// Outcome summarizes a terminal session.
type Outcome struct {
	TaskID   string
	State    State
	Result   json.RawMessage
	Err      error
	Attempts int
}

// Session is one polling run for a single task id.
type Session struct {
	taskID   string
	fetcher  StatusFetcher
	interval time.Duration
	max      int
	observer Observer
	logger   *slog.Logger
	cb       Callbacks

	fetchCtx    context.Context
	cancelFetch context.CancelFunc
	stopWatch   func() bool
	done        chan struct{}
	started     time.Time

	mu       sync.Mutex
	state    State
	timer    *time.Timer
	attempts int
	polls    int
	inFlight bool
	latest   *api.TaskStatus
	outcome  Outcome
}

func newSession(ctx context.Context, fetcher StatusFetcher, taskID string, opts Options, cb Callbacks) *Session {
	fetchCtx, cancel := context.WithCancel(services.WithTaskID(ctx, taskID))
	return &Session{
		taskID:      taskID,
		fetcher:     fetcher,
		interval:    opts.Interval,
		max:         opts.MaxAttempts,
		observer:    opts.Observer,
		logger:      opts.Logger.With(logging.TaskID(taskID)),
		cb:          cb,
		fetchCtx:    fetchCtx,
		cancelFetch: cancel,
		done:        make(chan struct{}),
		state:       StateUnstarted,
	}
}

func (s *Session) begin(parent context.Context) {
	s.observer.SessionStarted(s.taskID)
	s.logger.Debug("task polling started",
		logging.Duration("interval", s.interval),
		logging.Int("max_attempts", s.max),
	)

	s.mu.Lock()
	s.state = StatePolling
	s.started = time.Now()
	s.timer = time.AfterFunc(0, s.tick)
	s.stopWatch = context.AfterFunc(parent, func() { s.Cancel() })
	s.mu.Unlock()
}

// TaskID returns the job handle this session tracks.
func (s *Session) TaskID() string {
	return s.taskID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns the number of in-flight snapshots observed so far.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Latest returns the most recent snapshot, if any poll has completed.
func (s *Session) Latest() (api.TaskStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return api.TaskStatus{}, false
	}
	return *s.latest, true
}

// Done is closed once the session is terminal and its callback has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the terminal summary. It is only meaningful after Done.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Cancel marks the session terminal and stops its timer under one lock, so a
// response that arrives afterwards is discarded. A request already in flight is
// left to finish. No callback runs. It reports whether this call performed the
// cancellation.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = StateCancelled
	s.outcome = Outcome{TaskID: s.taskID, State: StateCancelled, Attempts: s.attempts}
	s.mu.Unlock()

	s.logger.Debug("task polling cancelled")
	s.release()
	return true
}

func (s *Session) tick() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.polls++
	poll := s.polls
	s.inFlight = true
	s.mu.Unlock()

	s.observer.Polled(s.taskID, poll)
	status, err := s.fetcher.TaskStatus(s.fetchCtx, s.taskID)

	s.mu.Lock()
	s.inFlight = false
	if s.state.Terminal() {
		s.mu.Unlock()
		s.cancelFetch()
		s.logger.Debug("discarding status response for finished session", logging.Int(logging.FieldAttempt, poll))
		return
	}
	if err != nil && s.fetchCtx.Err() != nil {
		s.mu.Unlock()
		s.Cancel()
		return
	}
	if err != nil {
		s.resolveLocked(StateResolvedFailure, nil, &FetchError{TaskID: s.taskID, Err: err})
		s.mu.Unlock()
		s.finish()
		return
	}

	snapshot := status
	s.latest = &snapshot
	switch status.Class() {
	case api.ClassSuccess:
		s.resolveLocked(StateResolvedSuccess, status.ResultPayload(), nil)
	case api.ClassFailure:
		message := strings.TrimSpace(status.Error)
		if message == "" {
			message = DefaultFailureMessage
		}
		s.resolveLocked(StateResolvedFailure, nil, &TaskError{TaskID: s.taskID, Message: message})
	default:
		s.attempts++
		if s.attempts >= s.max {
			s.resolveLocked(StateTimedOut, nil, &TimeoutError{
				TaskID:   s.taskID,
				Attempts: s.attempts,
				Waited:   time.Since(s.started),
			})
		}
	}
	attempt := s.attempts
	terminal := s.state.Terminal()
	s.mu.Unlock()

	if terminal {
		s.finish()
		return
	}

	s.logger.Debug("task still in flight",
		logging.String("status", status.Status),
		logging.Int(logging.FieldAttempt, attempt),
	)
	if s.cb.OnUpdate != nil {
		s.cb.OnUpdate(status, attempt)
	}

	s.mu.Lock()
	if !s.state.Terminal() {
		s.timer = time.AfterFunc(s.interval, s.tick)
	}
	s.mu.Unlock()
}

func (s *Session) resolveLocked(state State, result json.RawMessage, err error) {
	s.state = state
	s.outcome = Outcome{
		TaskID:   s.taskID,
		State:    state,
		Result:   result,
		Err:      err,
		Attempts: s.attempts,
	}
}

// finish delivers the single terminal callback.
func (s *Session) finish() {
	outcome := s.Outcome()
	switch outcome.State {
	case StateResolvedSuccess:
		s.logger.Info("task completed", logging.Int(logging.FieldAttempt, outcome.Attempts))
		if s.cb.OnComplete != nil {
			s.cb.OnComplete(outcome.Result)
		}
	default:
		logging.WarnWithContext(s.logger, "task did not complete", "task_"+outcome.State.String(),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, hintFor(outcome.State)),
		)
		if s.cb.OnError != nil {
			s.cb.OnError(outcome.Err)
		}
	}
	s.release()
}

func (s *Session) release() {
	s.mu.Lock()
	stopWatch := s.stopWatch
	state := s.state
	inFlight := s.inFlight
	s.mu.Unlock()
	// An in-flight tick releases the fetch context once its response is discarded.
	if !inFlight {
		s.cancelFetch()
	}
	if stopWatch != nil {
		stopWatch()
	}
	s.observer.SessionEnded(s.taskID, state.String())
	close(s.done)
}

func hintFor(state State) string {
	switch state {
	case StateTimedOut:
		return "check `twix task status` later or raise monitor.max_attempts"
	case StateResolvedFailure:
		return "inspect the backend worker logs, then resubmit"
	default:
		return "check logs for details"
	}
}

// Wait runs a session to completion and returns its result. A cancelled ctx
// yields ErrCancelled.
func (m *Monitor) Wait(ctx context.Context, taskID string, onUpdate func(api.TaskStatus, int)) (json.RawMessage, error) {
	s, err := m.Start(ctx, taskID, Callbacks{OnUpdate: onUpdate})
	if err != nil {
		return nil, err
	}
	<-s.Done()
	outcome := s.Outcome()
	switch outcome.State {
	case StateResolvedSuccess:
		return outcome.Result, nil
	case StateCancelled:
		return nil, ErrCancelled
	default:
		return nil, outcome.Err
	}
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string)       {}
func (nopObserver) Polled(string, int)          {}
func (nopObserver) SessionEnded(string, string) {}
