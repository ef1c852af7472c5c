package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"twix/internal/api"
)

// RecordedRequest captures what the fake backend received.
type RecordedRequest struct {
	Method    string
	Path      string
	Query     string
	APIKey    string
	RequestID string
	Body      string
}

// Backend is an in-process fake of the scraper REST API.
type Backend struct {
	server *httptest.Server

	mu          sync.Mutex
	apiKey      string
	requests    []RecordedRequest
	scripts     map[string][]api.TaskStatus
	rawStatus   map[string]string
	statusCalls map[string]int
	nextIDs     []string
	idCounter   int
	failures    map[string][]int
	credentials []api.Settings
	health      api.HealthResponse
	overview    api.TasksOverview
	active      api.ActiveTasks
	history     api.TasksHistory
	statusHook  func(taskID string, call int)
}

// NewBackend starts a fake backend and closes it when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		scripts:     map[string][]api.TaskStatus{},
		rawStatus:   map[string]string{},
		statusCalls: map[string]int{},
		failures:    map[string][]int{},
		health: api.HealthResponse{
			Status:  "success",
			Message: "ok",
			Data:    api.HealthData{Status: "healthy", OverallHealth: "healthy"},
		},
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the API base URL, including the /api/v1 prefix.
func (b *Backend) URL() string {
	return b.server.URL + "/api/v1"
}

// Close stops the server early, for tests that need transport failures.
func (b *Backend) Close() {
	b.server.Close()
}

// RequireKey makes every route answer 401 unless X-API-Key equals key.
func (b *Backend) RequireKey(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apiKey = key
}

// QueueTaskIDs sets the task IDs returned by the next submissions, in order.
func (b *Backend) QueueTaskIDs(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextIDs = append(b.nextIDs, ids...)
}

// ScriptTask defines the status snapshots returned by successive polls of
// taskID. The final snapshot repeats once the script is exhausted.
func (b *Backend) ScriptTask(taskID string, statuses ...api.TaskStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range statuses {
		if statuses[i].TaskID == "" {
			statuses[i].TaskID = taskID
		}
	}
	b.scripts[taskID] = statuses
}

// ScriptRawStatus makes every poll of taskID answer 200 with body verbatim,
// for malformed payloads the typed script cannot express.
func (b *Backend) ScriptRawStatus(taskID, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawStatus[taskID] = body
}

// OnStatus registers a hook that runs before each status response.
func (b *Backend) OnStatus(fn func(taskID string, call int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusHook = fn
}

// FailNext makes the next request whose path ends with suffix answer code.
func (b *Backend) FailNext(suffix string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[suffix] = append(b.failures[suffix], code)
}

// StatusCalls returns how many times taskID was polled.
func (b *Backend) StatusCalls(taskID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls[taskID]
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// LastRequest returns the most recent request whose path ends with suffix.
func (b *Backend) LastRequest(suffix string) (RecordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if strings.HasSuffix(b.requests[i].Path, suffix) {
			return b.requests[i], true
		}
	}
	return RecordedRequest{}, false
}

// SetHealth replaces the health payload.
func (b *Backend) SetHealth(resp api.HealthResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health = resp
}

// SetTasks replaces the aggregate task payloads.
func (b *Backend) SetTasks(overview api.TasksOverview, active api.ActiveTasks, history api.TasksHistory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overview = overview
	b.active = active
	b.history = history
}

// Credentials returns the stored credential records.
func (b *Backend) Credentials() []api.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Settings(nil), b.credentials...)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)
	r.Use(b.injectFailures)
	r.Use(b.authorize)

	r.Route("/api/v1/twitter", func(r chi.Router) {
		r.Post("/settings", b.createCredentials)
		r.Get("/settings", b.listCredentials)
		r.Put("/settings/{id}", b.updateCredentials)
		r.Delete("/settings/{id}", b.deleteCredentials)

		r.Post("/login", b.accept)
		r.Post("/search/users", b.accept)
		r.Get("/users/{username}/{resource}", b.accept)

		r.Get("/tasks/", b.tasksOverview)
		r.Get("/tasks/active", b.tasksActive)
		r.Get("/tasks/history", b.tasksHistory)
		r.Get("/tasks/{taskID}", b.taskStatus)

		r.Get("/health", b.healthCheck)
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			APIKey:    r.Header.Get("X-API-Key"),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      string(body),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		code := 0
		for suffix, codes := range b.failures {
			if len(codes) > 0 && strings.HasSuffix(r.URL.Path, suffix) {
				code = codes[0]
				b.failures[suffix] = codes[1:]
				break
			}
		}
		b.mu.Unlock()
		if code != 0 {
			writeJSON(w, code, map[string]any{"detail": fmt.Sprintf("injected failure %d", code)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		required := b.apiKey
		b.mu.Unlock()
		if required != "" && r.Header.Get("X-API-Key") != required {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) accept(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	var id string
	if len(b.nextIDs) > 0 {
		id = b.nextIDs[0]
		b.nextIDs = b.nextIDs[1:]
	} else {
		b.idCounter++
		id = fmt.Sprintf("task-%d", b.idCounter)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusAccepted, api.Response[api.TaskHandle]{Data: api.TaskHandle{TaskID: id}, Message: "accepted"})
}

func (b *Backend) taskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	b.mu.Lock()
	script, ok := b.scripts[taskID]
	raw, hasRaw := b.rawStatus[taskID]
	b.statusCalls[taskID]++
	call := b.statusCalls[taskID]
	hook := b.statusHook
	b.mu.Unlock()

	if hook != nil {
		hook(taskID, call)
	}
	if hasRaw {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, raw)
		return
	}
	if !ok || len(script) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "task not found"})
		return
	}
	idx := call - 1
	if idx >= len(script) {
		idx = len(script) - 1
	}
	writeJSON(w, http.StatusOK, api.Response[api.TaskStatus]{Data: script[idx]})
}

func (b *Backend) createCredentials(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.CredentialName == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "credential_name is required"})
		return
	}
	b.mu.Lock()
	b.idCounter++
	settings := api.Settings{
		ID:             fmt.Sprintf("cred-%d", b.idCounter),
		CredentialName: creds.CredentialName,
		Username:       creds.Username,
		CreatedAt:      "2024-05-01T10:00:00Z",
		UpdatedAt:      "2024-05-01T10:00:00Z",
	}
	b.credentials = append(b.credentials, settings)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, api.Response[api.Settings]{Data: settings, Message: "saved"})
}

func (b *Backend) listCredentials(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	data := append([]api.Settings{}, b.credentials...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Response[[]api.Settings]{Data: data})
}

func (b *Backend) updateCredentials(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.credentials {
		if b.credentials[i].ID != id {
			continue
		}
		if creds.CredentialName != "" {
			b.credentials[i].CredentialName = creds.CredentialName
		}
		if creds.Username != "" {
			b.credentials[i].Username = creds.Username
		}
		b.credentials[i].UpdatedAt = "2024-05-02T10:00:00Z"
		writeJSON(w, http.StatusOK, api.Response[api.Settings]{Data: b.credentials[i], Message: "updated"})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "credential not found"})
}

func (b *Backend) deleteCredentials(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.credentials {
		if b.credentials[i].ID == id {
			b.credentials = append(b.credentials[:i], b.credentials[i+1:]...)
			writeJSON(w, http.StatusOK, api.Response[any]{Message: "deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "credential not found"})
}

func (b *Backend) tasksOverview(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	data := b.overview
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Response[api.TasksOverview]{Data: data})
}

func (b *Backend) tasksActive(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	data := b.active
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Response[api.ActiveTasks]{Data: data})
}

func (b *Backend) tasksHistory(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	data := b.history
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Response[api.TasksHistory]{Data: data})
}

func (b *Backend) healthCheck(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	data := b.health
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
