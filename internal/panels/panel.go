package panels

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"twix/internal/api"
	"twix/internal/logging"
	"twix/internal/monitor"
	"twix/internal/services"
)

// Jobs is the backend surface the job panels need.
type Jobs interface {
	monitor.StatusFetcher
	Login(ctx context.Context, req api.LoginRequest) (string, error)
	SearchUsers(ctx context.Context, req api.SearchUsersRequest) (string, error)
	UserTimeline(ctx context.Context, username string, count int) (string, error)
	UserFollowers(ctx context.Context, username string, count int) (string, error)
	UserFollowing(ctx context.Context, username string, count int) (string, error)
}

// Handlers receive a job's outcome. All fields are optional.
type Handlers[T any] struct {
	OnResult   func(T)
	OnError    func(error)
	OnProgress func(status api.TaskStatus, attempt int)
}

// Job is one submitted backend task bound to a monitor session.
type Job[T any] struct {
	TaskID string

	session *monitor.Session
	done    chan struct{}

	mu     sync.Mutex
	result T
	err    error
}

// Session exposes the underlying polling session.
func (j *Job[T]) Session() *monitor.Session {
	return j.session
}

// Done is closed once the job is terminal and the panel is free again.
func (j *Job[T]) Done() <-chan struct{} {
	return j.done
}

// Cancel stops monitoring silently. The backend task itself keeps running.
func (j *Job[T]) Cancel() bool {
	return j.session.Cancel()
}

// Result returns the normalized result or the terminal error. A cancelled job
// reports monitor.ErrCancelled.
func (j *Job[T]) Result() (T, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Wait blocks until the job is terminal or ctx ends.
func (j *Job[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		j.Cancel()
		<-j.done
		return j.Result()
	}
}

func (j *Job[T]) set(result T, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = result
	j.err = err
}

// Panel owns one monitor and allows a single active job.
type Panel[T any] struct {
	name      string
	monitor   *monitor.Monitor
	normalize func(json.RawMessage) (T, error)
	logger    *slog.Logger

	mu     sync.Mutex
	active *Job[T]
	busy   bool
}

func newPanel[T any](name string, fetcher monitor.StatusFetcher, opts monitor.Options, normalize func(json.RawMessage) (T, error)) *Panel[T] {
	logger := logging.NewComponentLogger(opts.Logger, "panels").With(logging.String(logging.FieldPanel, name))
	opts.Logger = logger
	return &Panel[T]{
		name:      name,
		monitor:   monitor.New(fetcher, opts),
		normalize: normalize,
		logger:    logger,
	}
}

// Name identifies the panel in logs.
func (p *Panel[T]) Name() string {
	return p.name
}

// Active reports whether a job is being submitted or monitored.
func (p *Panel[T]) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Cancel stops the active job, if any, without delivering a result.
func (p *Panel[T]) Cancel() bool {
	return p.monitor.Cancel()
}

func (p *Panel[T]) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return services.Wrap(services.ErrJobActive, p.name, "submit", "a job is already running on this panel", nil)
	}
	p.busy = true
	return nil
}

func (p *Panel[T]) releaseFor(job *Job[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job == nil || p.active == job {
		p.active = nil
		p.busy = false
	}
}

// run submits a job, then binds a monitor session to the returned handle.
func (p *Panel[T]) run(ctx context.Context, submit func(context.Context) (string, error), h Handlers[T]) (*Job[T], error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	ctx = services.WithPanel(ctx, p.name)

	taskID, err := submit(ctx)
	if err != nil {
		p.releaseFor(nil)
		logging.WithContext(ctx, p.logger).Warn("job submission failed", logging.Error(err))
		return nil, err
	}

	job := &Job[T]{TaskID: taskID, done: make(chan struct{})}
	p.mu.Lock()
	p.active = job
	p.mu.Unlock()

	session, err := p.monitor.Start(ctx, taskID, monitor.Callbacks{
		OnComplete: func(raw json.RawMessage) {
			result, nerr := p.normalize(raw)
			if nerr != nil {
				nerr = services.Wrap(services.ErrTransport, p.name, "normalize result", "", nerr)
				job.set(result, nerr)
				p.releaseFor(job)
				if h.OnError != nil {
					h.OnError(nerr)
				}
				return
			}
			job.set(result, nil)
			p.releaseFor(job)
			if h.OnResult != nil {
				h.OnResult(result)
			}
		},
		OnError: func(err error) {
			var zero T
			job.set(zero, err)
			p.releaseFor(job)
			if h.OnError != nil {
				h.OnError(err)
			}
		},
		OnUpdate: h.OnProgress,
	})
	if err != nil {
		p.releaseFor(job)
		return nil, err
	}
	job.session = session

	go func() {
		<-session.Done()
		if session.State() == monitor.StateCancelled {
			var zero T
			job.set(zero, monitor.ErrCancelled)
		}
		p.releaseFor(job)
		close(job.done)
	}()
	return job, nil
}
