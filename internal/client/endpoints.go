package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"twix/internal/api"
	"twix/internal/logging"
	"twix/internal/services"
)

// Job kinds used for submission metrics and logs.
const (
	KindLogin     = "login"
	KindSearch    = "search"
	KindTimeline  = "timeline"
	KindFollowers = "followers"
	KindFollowing = "following"
)

// SaveCredentials stores a new scraping account.
func (c *Client) SaveCredentials(ctx context.Context, creds api.Credentials) (api.Settings, error) {
	var resp api.Response[api.Settings]
	err := c.do(ctx, call{method: http.MethodPost, path: "/twitter/settings", body: creds}, &resp)
	if err != nil {
		return api.Settings{}, services.Wrap(services.ErrSubmission, "client", "save credentials", "", err)
	}
	return resp.Data, nil
}

// ListCredentials returns every stored scraping account.
func (c *Client) ListCredentials(ctx context.Context) ([]api.Settings, error) {
	var resp api.Response[[]api.Settings]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/twitter/settings"}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []api.Settings{}, nil
	}
	return resp.Data, nil
}

// UpdateCredentials replaces the stored account identified by id.
func (c *Client) UpdateCredentials(ctx context.Context, id string, creds api.Credentials) (api.Settings, error) {
	var resp api.Response[api.Settings]
	err := c.do(ctx, call{
		method:     http.MethodPut,
		path:       "/twitter/settings/{id}",
		pathParams: map[string]string{"id": id},
		body:       creds,
	}, &resp)
	if err != nil {
		return api.Settings{}, services.Wrap(services.ErrSubmission, "client", "update credentials", "", err)
	}
	return resp.Data, nil
}

// DeleteCredentials removes the stored account identified by id.
func (c *Client) DeleteCredentials(ctx context.Context, id string) error {
	err := c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/twitter/settings/{id}",
		pathParams: map[string]string{"id": id},
	}, nil)
	if err != nil {
		return services.Wrap(services.ErrSubmission, "client", "delete credentials", "", err)
	}
	return nil
}

// Login starts a scraper login for a stored credential.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (string, error) {
	return c.submit(ctx, KindLogin, call{method: http.MethodPost, path: "/twitter/login", body: req})
}

// SearchUsers starts a user search.
func (c *Client) SearchUsers(ctx context.Context, req api.SearchUsersRequest) (string, error) {
	return c.submit(ctx, KindSearch, call{method: http.MethodPost, path: "/twitter/search/users", body: req})
}

// UserTimeline starts a timeline fetch for username.
func (c *Client) UserTimeline(ctx context.Context, username string, count int) (string, error) {
	return c.submit(ctx, KindTimeline, userCall("timeline", username, count))
}

// UserFollowers starts a followers fetch for username.
func (c *Client) UserFollowers(ctx context.Context, username string, count int) (string, error) {
	return c.submit(ctx, KindFollowers, userCall("followers", username, count))
}

// UserFollowing starts a following fetch for username.
func (c *Client) UserFollowing(ctx context.Context, username string, count int) (string, error) {
	return c.submit(ctx, KindFollowing, userCall("following", username, count))
}

func userCall(resource, username string, count int) call {
	return call{
		method:     http.MethodGet,
		path:       "/twitter/users/{username}/" + resource,
		pathParams: map[string]string{"username": username},
		query:      map[string]string{"count": strconv.Itoa(count)},
	}
}

// submit issues one job submission and returns the accepted task ID. The task
// ID may arrive in data.task_id or the top-level task_id.
func (c *Client) submit(ctx context.Context, kind string, route call) (string, error) {
	var resp api.Response[api.TaskHandle]
	err := c.do(ctx, route, &resp)
	if err == nil {
		taskID := strings.TrimSpace(resp.Data.TaskID)
		if taskID == "" {
			taskID = strings.TrimSpace(resp.TaskID)
		}
		if taskID == "" {
			err = services.Wrap(services.ErrSubmission, "client", kind, "backend accepted the job without a task id", nil)
		} else {
			c.metrics.ObserveSubmission(kind, nil)
			logging.WithContext(ctx, c.logger).Info("job submitted", logging.TaskID(taskID), logging.String("kind", kind))
			return taskID, nil
		}
	} else {
		err = services.Wrap(services.ErrSubmission, "client", kind, "", err)
	}
	c.metrics.ObserveSubmission(kind, err)
	return "", err
}

// TaskStatus fetches one status snapshot.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (api.TaskStatus, error) {
	var resp api.Response[*api.TaskStatus]
	route := call{
		method:     http.MethodGet,
		path:       "/twitter/tasks/{task_id}",
		pathParams: map[string]string{"task_id": taskID},
	}
	if err := c.do(ctx, route, &resp); err != nil {
		return api.TaskStatus{}, err
	}
	// A 2xx without a status snapshot is malformed, not in flight.
	if resp.Data == nil {
		return api.TaskStatus{}, services.Wrap(services.ErrTransport, route.method, route.resolvedPath(), "status response has no data", nil)
	}
	if strings.TrimSpace(resp.Data.Status) == "" {
		return api.TaskStatus{}, services.Wrap(services.ErrTransport, route.method, route.resolvedPath(), "status response has no status", nil)
	}
	status := *resp.Data
	if status.TaskID == "" {
		status.TaskID = taskID
	}
	return status, nil
}

// TasksOverview returns worker and queue aggregates.
func (c *Client) TasksOverview(ctx context.Context) (api.TasksOverview, error) {
	var resp api.Response[api.TasksOverview]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/twitter/tasks/"}, &resp); err != nil {
		return api.TasksOverview{}, err
	}
	return resp.Data, nil
}

// ActiveTasks lists in-flight jobs.
func (c *Client) ActiveTasks(ctx context.Context) (api.ActiveTasks, error) {
	var resp api.Response[api.ActiveTasks]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/twitter/tasks/active"}, &resp); err != nil {
		return api.ActiveTasks{}, err
	}
	return resp.Data, nil
}

// TasksHistory summarizes finished jobs.
func (c *Client) TasksHistory(ctx context.Context) (api.TasksHistory, error) {
	var resp api.Response[api.TasksHistory]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/twitter/tasks/history"}, &resp); err != nil {
		return api.TasksHistory{}, err
	}
	return resp.Data, nil
}

// Health returns the backend's service and system health snapshot.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.do(ctx, call{method: http.MethodGet, path: "/twitter/health"}, &resp); err != nil {
		return api.HealthResponse{}, err
	}
	return resp, nil
}

// Ping times one health request. The duration is reported even on failure.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.Health(ctx)
	return time.Since(start), err
}
