package monitor_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"twix/internal/api"
	"twix/internal/client"
	"twix/internal/keystore"
	"twix/internal/monitor"
	"twix/internal/services"
	"twix/internal/testsupport"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	respond func(call int) (api.TaskStatus, error)
}

func (f *scriptedFetcher) TaskStatus(_ context.Context, taskID string) (api.TaskStatus, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	status, err := f.respond(call)
	if status.TaskID == "" {
		status.TaskID = taskID
	}
	return status, err
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func always(status string) *scriptedFetcher {
	return &scriptedFetcher{respond: func(int) (api.TaskStatus, error) {
		return api.TaskStatus{Status: status}, nil
	}}
}

type recorder struct {
	mu        sync.Mutex
	completes []json.RawMessage
	errs      []error
	updates   []int
}

func (r *recorder) callbacks() monitor.Callbacks {
	return monitor.Callbacks{
		OnComplete: func(result json.RawMessage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completes = append(r.completes, result)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
		OnUpdate: func(_ api.TaskStatus, attempt int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.updates = append(r.updates, attempt)
		},
	}
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completes), len(r.errs)
}

func fastOptions(max int) monitor.Options {
	return monitor.Options{Interval: time.Millisecond, MaxAttempts: max}
}

func waitDone(t *testing.T, s *monitor.Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("session %s did not finish; state %s", s.TaskID(), s.State())
	}
}

func TestProcessingThenSuccessDeliversNestedResult(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.ScriptTask("abc123",
		api.TaskStatus{Status: "PROCESSING"},
		api.TaskStatus{Status: "SUCCESS", Result: json.RawMessage(`{"users":[{"username":"gopher"}]}`)},
	)
	c, err := client.New(client.Options{BaseURL: backend.URL(), Keys: keystore.NewMemoryStore("")})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	rec := &recorder{}
	m := monitor.New(c, monitor.Options{Interval: 20 * time.Millisecond, MaxAttempts: 60})
	s, err := m.Start(context.Background(), "abc123", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)
	time.Sleep(60 * time.Millisecond)

	completes, errs := rec.counts()
	if completes != 1 || errs != 0 {
		t.Fatalf("expected exactly one completion, got completes=%d errors=%d", completes, errs)
	}
	if got := string(rec.completes[0]); got != `{"users":[{"username":"gopher"}]}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if calls := backend.StatusCalls("abc123"); calls != 2 {
		t.Fatalf("expected 2 status queries, got %d", calls)
	}
	if s.State() != monitor.StateResolvedSuccess {
		t.Fatalf("expected resolved_success, got %s", s.State())
	}
	if s.Attempts() != 1 {
		t.Fatalf("expected one in-flight attempt, got %d", s.Attempts())
	}
}

func TestSuccessVocabularyPairsDeliverSamePayload(t *testing.T) {
	payloads := map[string]string{}
	for _, status := range []string{"completed", "SUCCESS"} {
		fetcher := &scriptedFetcher{respond: func(int) (api.TaskStatus, error) {
			return api.TaskStatus{Status: status, Result: json.RawMessage(`{"users":[]}`)}, nil
		}}
		rec := &recorder{}
		s, err := monitor.New(fetcher, fastOptions(60)).Start(context.Background(), "t1", rec.callbacks())
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		waitDone(t, s)
		completes, errs := rec.counts()
		if completes != 1 || errs != 0 {
			t.Fatalf("%s: expected one completion, got completes=%d errors=%d", status, completes, errs)
		}
		payloads[status] = string(rec.completes[0])
	}
	if payloads["completed"] != payloads["SUCCESS"] {
		t.Fatalf("payload shapes differ: %q vs %q", payloads["completed"], payloads["SUCCESS"])
	}
}

func TestSuccessWithoutResultDeliversSnapshot(t *testing.T) {
	fetcher := always("completed")
	rec := &recorder{}
	s, err := monitor.New(fetcher, fastOptions(60)).Start(context.Background(), "t2", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)

	var snapshot api.TaskStatus
	if err := json.Unmarshal(rec.completes[0], &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.TaskID != "t2" || snapshot.Status != "completed" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestFailureVocabularyPairs(t *testing.T) {
	cases := []struct {
		status  string
		message string
		want    string
	}{
		{status: "failed", message: "rate limited", want: "rate limited"},
		{status: "FAILED", message: "rate limited", want: "rate limited"},
		{status: "failed", want: monitor.DefaultFailureMessage},
		{status: "FAILED", message: "   ", want: monitor.DefaultFailureMessage},
	}
	for _, tc := range cases {
		fetcher := &scriptedFetcher{respond: func(int) (api.TaskStatus, error) {
			return api.TaskStatus{Status: tc.status, Error: tc.message}, nil
		}}
		rec := &recorder{}
		s, err := monitor.New(fetcher, fastOptions(60)).Start(context.Background(), "t3", rec.callbacks())
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		waitDone(t, s)
		completes, errs := rec.counts()
		if completes != 0 || errs != 1 {
			t.Fatalf("%s: expected one error, got completes=%d errors=%d", tc.status, completes, errs)
		}
		got := rec.errs[0]
		if got.Error() != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.status, tc.want, got.Error())
		}
		if !errors.Is(got, services.ErrTaskFailed) {
			t.Fatalf("expected ErrTaskFailed, got %v", got)
		}
		if s.State() != monitor.StateResolvedFailure {
			t.Fatalf("expected resolved_failure, got %s", s.State())
		}
	}
}

func TestTimeoutOnCeilingWithoutExtraPoll(t *testing.T) {
	fetcher := always("pending")
	rec := &recorder{}
	s, err := monitor.New(fetcher, fastOptions(60)).Start(context.Background(), "slow", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)
	time.Sleep(20 * time.Millisecond)

	if calls := fetcher.Calls(); calls != 60 {
		t.Fatalf("expected exactly 60 polls, got %d", calls)
	}
	if s.State() != monitor.StateTimedOut {
		t.Fatalf("expected timed_out, got %s", s.State())
	}
	completes, errs := rec.counts()
	if completes != 0 || errs != 1 {
		t.Fatalf("expected one error, got completes=%d errors=%d", completes, errs)
	}
	var timeout *monitor.TimeoutError
	if !errors.As(rec.errs[0], &timeout) {
		t.Fatalf("expected TimeoutError, got %T", rec.errs[0])
	}
	if timeout.Attempts != 60 {
		t.Fatalf("expected 60 attempts, got %d", timeout.Attempts)
	}
	if !errors.Is(rec.errs[0], services.ErrTimeout) || errors.Is(rec.errs[0], services.ErrTaskFailed) {
		t.Fatalf("timeout must be distinct from task failure: %v", rec.errs[0])
	}
	// 59 in-flight updates are reported; the 60th response resolves the session.
	if len(rec.updates) != 59 {
		t.Fatalf("expected 59 updates, got %d", len(rec.updates))
	}
	for i, attempt := range rec.updates {
		if attempt != i+1 {
			t.Fatalf("attempt counter skipped at %d: %v", i, rec.updates)
		}
	}
}

func TestTerminalStatusOnLastAttemptWins(t *testing.T) {
	fetcher := &scriptedFetcher{respond: func(call int) (api.TaskStatus, error) {
		if call == 3 {
			return api.TaskStatus{Status: "SUCCESS"}, nil
		}
		return api.TaskStatus{Status: "running"}, nil
	}}
	rec := &recorder{}
	s, err := monitor.New(fetcher, fastOptions(3)).Start(context.Background(), "edge", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)
	if s.State() != monitor.StateResolvedSuccess {
		t.Fatalf("expected success on final allowed poll, got %s", s.State())
	}
}

func TestTransportErrorFailsImmediately(t *testing.T) {
	fetcher := &scriptedFetcher{respond: func(int) (api.TaskStatus, error) {
		return api.TaskStatus{}, services.Wrap(services.ErrTransport, "GET", "/twitter/tasks/x", "request failed", errors.New("connection refused"))
	}}
	rec := &recorder{}
	s, err := monitor.New(fetcher, fastOptions(60)).Start(context.Background(), "x", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)
	time.Sleep(10 * time.Millisecond)

	if calls := fetcher.Calls(); calls != 1 {
		t.Fatalf("expected no retry, got %d polls", calls)
	}
	completes, errs := rec.counts()
	if completes != 0 || errs != 1 {
		t.Fatalf("expected one error, got completes=%d errors=%d", completes, errs)
	}
	if !strings.HasPrefix(rec.errs[0].Error(), monitor.FetchFailureMessage) {
		t.Fatalf("unexpected message %q", rec.errs[0].Error())
	}
	if !errors.Is(rec.errs[0], services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", rec.errs[0])
	}
}

func TestMalformedStatusResponseFailsImmediately(t *testing.T) {
	bodies := []string{``, `{}`, `{"data":null}`, `{"data":{"progress":0.4}}`}
	for i, body := range bodies {
		backend := testsupport.NewBackend(t)
		backend.ScriptRawStatus("abc", body)
		c, err := client.New(client.Options{BaseURL: backend.URL(), Keys: keystore.NewMemoryStore("")})
		if err != nil {
			t.Fatalf("client: %v", err)
		}

		_, err = monitor.New(c, fastOptions(5)).Wait(context.Background(), "abc", nil)
		var fetchErr *monitor.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("body %d (%q): expected fetch error, got %v", i, body, err)
		}
		if errors.Is(err, services.ErrTimeout) {
			t.Fatalf("body %d (%q): malformed response must not time out", i, body)
		}
		if calls := backend.StatusCalls("abc"); calls != 1 {
			t.Fatalf("body %d (%q): expected a single status query, got %d", i, body, calls)
		}
	}
}

func TestCancelDiscardsInFlightResponse(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher := &scriptedFetcher{respond: func(call int) (api.TaskStatus, error) {
		if call == 1 {
			close(entered)
			<-release
		}
		return api.TaskStatus{Status: "SUCCESS", Result: json.RawMessage(`{}`)}, nil
	}}
	rec := &recorder{}
	s, err := monitor.New(fetcher, fastOptions(60)).Start(context.Background(), "race", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	<-entered
	if !s.Cancel() {
		t.Fatalf("expected cancel to take effect")
	}
	close(release)
	waitDone(t, s)
	time.Sleep(20 * time.Millisecond)

	completes, errs := rec.counts()
	if completes != 0 || errs != 0 {
		t.Fatalf("cancel must be silent, got completes=%d errors=%d", completes, errs)
	}
	if s.State() != monitor.StateCancelled {
		t.Fatalf("expected cancelled, got %s", s.State())
	}
	if calls := fetcher.Calls(); calls != 1 {
		t.Fatalf("expected no polling after cancel, got %d polls", calls)
	}
	if s.Cancel() {
		t.Fatalf("second cancel should be a no-op")
	}
}

type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (f *blockingFetcher) TaskStatus(ctx context.Context, taskID string) (api.TaskStatus, error) {
	close(f.entered)
	<-f.release
	f.ctxErr <- ctx.Err()
	return api.TaskStatus{TaskID: taskID, Status: "running"}, nil
}

func TestCancelLetsInFlightRequestFinish(t *testing.T) {
	fetcher := &blockingFetcher{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
	rec := &recorder{}
	s, err := monitor.New(fetcher, fastOptions(60)).Start(context.Background(), "inflight", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	<-fetcher.entered
	if !s.Cancel() {
		t.Fatalf("expected cancel to take effect")
	}
	waitDone(t, s)
	close(fetcher.release)

	select {
	case ctxErr := <-fetcher.ctxErr:
		if ctxErr != nil {
			t.Fatalf("in-flight request was aborted by cancel: %v", ctxErr)
		}
	case <-time.After(time.Second):
		t.Fatalf("in-flight request never finished")
	}
	time.Sleep(20 * time.Millisecond)
	if completes, errs := rec.counts(); completes != 0 || errs != 0 {
		t.Fatalf("late response must be discarded, got completes=%d errors=%d", completes, errs)
	}
	rec.mu.Lock()
	updates := len(rec.updates)
	rec.mu.Unlock()
	if updates != 0 {
		t.Fatalf("late response must not reach OnUpdate, got %d updates", updates)
	}
}

func TestContextCancellationIsSilent(t *testing.T) {
	fetcher := always("running")
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	s, err := monitor.New(fetcher, monitor.Options{Interval: 10 * time.Millisecond}).Start(ctx, "ctx", rec.callbacks())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	cancel()
	waitDone(t, s)

	calls := fetcher.Calls()
	time.Sleep(40 * time.Millisecond)
	if fetcher.Calls() != calls {
		t.Fatalf("polling continued after context cancellation")
	}
	if completes, errs := rec.counts(); completes != 0 || errs != 0 {
		t.Fatalf("cancel must be silent, got completes=%d errors=%d", completes, errs)
	}
}

func TestStartReplacesPreviousSession(t *testing.T) {
	fetcher := always("pending")
	m := monitor.New(fetcher, monitor.Options{Interval: 5 * time.Millisecond, MaxAttempts: 1000})
	first, err := m.Start(context.Background(), "one", monitor.Callbacks{})
	if err != nil {
		t.Fatalf("start first: %v", err)
	}
	second, err := m.Start(context.Background(), "two", monitor.Callbacks{})
	if err != nil {
		t.Fatalf("start second: %v", err)
	}
	waitDone(t, first)
	if first.State() != monitor.StateCancelled {
		t.Fatalf("expected first session cancelled, got %s", first.State())
	}
	if m.Current() != second || !m.Active() {
		t.Fatalf("expected second session to be current and active")
	}
	if !m.Cancel() {
		t.Fatalf("expected monitor cancel to stop second session")
	}
	waitDone(t, second)
	if m.Active() {
		t.Fatalf("monitor should be idle after cancel")
	}
}

func TestStartRejectsEmptyTaskID(t *testing.T) {
	_, err := monitor.New(always("pending"), monitor.Options{}).Start(context.Background(), "  ", monitor.Callbacks{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLatestKeepsOnlyNewestSnapshot(t *testing.T) {
	progress := 0.0
	fetcher := &scriptedFetcher{respond: func(call int) (api.TaskStatus, error) {
		progress += 0.25
		p := progress
		if call == 3 {
			return api.TaskStatus{Status: "completed", Progress: &p}, nil
		}
		return api.TaskStatus{Status: "running", Progress: &p}, nil
	}}
	s, err := monitor.New(fetcher, fastOptions(10)).Start(context.Background(), "p", monitor.Callbacks{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)
	latest, ok := s.Latest()
	if !ok || latest.Status != "completed" || latest.Progress == nil || *latest.Progress != 0.75 {
		t.Fatalf("unexpected latest snapshot %+v", latest)
	}
}

type observerLog struct {
	mu     sync.Mutex
	events []string
}

func (o *observerLog) SessionStarted(taskID string) { o.add("start " + taskID) }
func (o *observerLog) Polled(taskID string, _ int)  { o.add("poll " + taskID) }
func (o *observerLog) SessionEnded(taskID, outcome string) {
	o.add("end " + taskID + " " + outcome)
}

func (o *observerLog) add(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func TestObserverSeesLifecycle(t *testing.T) {
	obs := &observerLog{}
	fetcher := &scriptedFetcher{respond: func(call int) (api.TaskStatus, error) {
		if call == 2 {
			return api.TaskStatus{Status: "FAILED"}, nil
		}
		return api.TaskStatus{Status: "pending"}, nil
	}}
	s, err := monitor.New(fetcher, monitor.Options{Interval: time.Millisecond, Observer: obs}).Start(context.Background(), "o", monitor.Callbacks{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, s)

	want := []string{"start o", "poll o", "poll o", "end o resolved_failure"}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if strings.Join(obs.events, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected events %v", obs.events)
	}
}

func TestWaitReturnsResultAndErrors(t *testing.T) {
	m := monitor.New(&scriptedFetcher{respond: func(int) (api.TaskStatus, error) {
		return api.TaskStatus{Status: "SUCCESS", Result: json.RawMessage(`{"ok":true}`)}, nil
	}}, fastOptions(5))
	result, err := m.Wait(context.Background(), "w", nil)
	if err != nil || string(result) != `{"ok":true}` {
		t.Fatalf("unexpected wait result %s, %v", result, err)
	}

	m = monitor.New(always("pending"), fastOptions(2))
	if _, err := m.Wait(context.Background(), "w", nil); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	m = monitor.New(always("pending"), monitor.Options{Interval: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Wait(ctx, "w", nil); !errors.Is(err, monitor.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
