package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"twix/internal/keystore"
	"twix/internal/logging"
	"twix/internal/services"
	"twix/internal/telemetry"
)

const (
	HeaderAPIKey    = "X-API-Key"
	HeaderRequestID = "X-Request-ID"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	Keys      keystore.Store
	Logger    *slog.Logger
	Metrics   *telemetry.Metrics
	// OnUnauthorized runs after a 401 has cleared the stored key.
	OnUnauthorized func()
	// HTTPClient replaces the transport client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the scraper backend.
type Client struct {
	http           *resty.Client
	keys           keystore.Store
	logger         *slog.Logger
	metrics        *telemetry.Metrics
	limiter        *rate.Limiter
	onUnauthorized func()
}

// New builds a Client. A key store is required so credentials are never read
// from ambient state.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "client", "init", "base url is required", nil)
	}
	if opts.Keys == nil {
		return nil, services.Wrap(services.ErrConfiguration, "client", "init", "key store is required", nil)
	}

	var httpClient *resty.Client
	if opts.HTTPClient != nil {
		httpClient = resty.NewWithClient(opts.HTTPClient)
	} else {
		httpClient = resty.New()
	}
	logger := logging.NewComponentLogger(opts.Logger, "client")
	httpClient.SetLogger(restyLogger{logger: logger})
	httpClient.SetBaseURL(baseURL)
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("Accept", "application/json")
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		httpClient.SetHeader("User-Agent", ua)
	}
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	c := &Client{
		http:           httpClient,
		keys:           opts.Keys,
		logger:         logger,
		metrics:        opts.Metrics,
		onUnauthorized: opts.OnUnauthorized,
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	httpClient.OnBeforeRequest(c.onBeforeRequest)
	httpClient.OnAfterResponse(c.onAfterResponse)
	httpClient.OnError(c.onError)
	return c, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id    string
	start time.Time
}

func (c *Client) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
	}
	if key := c.keys.Get(); key != "" {
		req.SetHeader(HeaderAPIKey, key)
	}

	ctx := req.Context()
	id, ok := services.RequestIDFromContext(ctx)
	if !ok {
		id = uuid.NewString()
		ctx = services.WithRequestID(ctx, id)
	}
	req.SetHeader(HeaderRequestID, id)
	req.SetContext(context.WithValue(ctx, reqCtxKey, reqCtx{id: id, start: time.Now()}))
	return nil
}

func (c *Client) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	elapsed := res.Time()
	if rc, ok := ctx.Value(reqCtxKey).(reqCtx); ok {
		elapsed = time.Since(rc.start)
	}
	c.metrics.ObserveRequest(res.Request.Method, res.StatusCode(), elapsed)
	logging.WithContext(ctx, c.logger).Debug("backend response",
		logging.String("method", res.Request.Method),
		logging.String("url", res.Request.URL),
		logging.Int("status", res.StatusCode()),
		logging.Duration("elapsed", elapsed),
	)

	if res.StatusCode() == http.StatusUnauthorized {
		c.handleUnauthorized(ctx)
	}
	return nil
}

func (c *Client) onError(req *resty.Request, err error) {
	ctx := req.Context()
	var elapsed time.Duration
	if rc, ok := ctx.Value(reqCtxKey).(reqCtx); ok {
		elapsed = time.Since(rc.start)
	}
	c.metrics.ObserveRequest(req.Method, 0, elapsed)
	if errors.Is(err, context.Canceled) {
		return
	}
	logging.WithContext(ctx, c.logger).Debug("backend request failed",
		logging.String("method", req.Method),
		logging.String("url", req.URL),
		logging.Error(err),
	)
}

// handleUnauthorized applies the global 401 policy: drop the stored key and
// send the operator back to authentication.
func (c *Client) handleUnauthorized(ctx context.Context) {
	if err := c.keys.Clear(); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "failed to clear rejected api key", "auth_clear_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the key file manually"),
		)
	}
	c.logger.Warn("backend rejected api key; stored key cleared")
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

type call struct {
	method     string
	path       string
	pathParams map[string]string
	query      map[string]string
	body       any
}

// resolvedPath substitutes path parameters into the route template.
func (r call) resolvedPath() string {
	path := r.path
	for key, value := range r.pathParams {
		path = strings.ReplaceAll(path, "{"+key+"}", url.PathEscape(value))
	}
	return path
}

// do executes one request and decodes a 2xx body into out. Errors carry
// services.ErrTransport, services.ErrUnauthorized, or a *StatusError.
func (c *Client) do(ctx context.Context, route call, out any) error {
	req := c.http.R().SetContext(ctx)
	if len(route.pathParams) > 0 {
		req.SetPathParams(route.pathParams)
	}
	if len(route.query) > 0 {
		req.SetQueryParams(route.query)
	}
	if route.body != nil {
		req.SetBody(route.body)
	}

	res, err := req.Execute(route.method, route.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrTransport, route.method, route.resolvedPath(), "request failed", err)
	}

	if res.StatusCode() == http.StatusUnauthorized {
		return services.Wrap(services.ErrUnauthorized, route.method, res.Request.URL, "api key rejected; run `twix auth set-key`", nil)
	}
	if !res.IsSuccess() {
		return newStatusError(route.method, res.Request.URL, res.StatusCode(), res.Body())
	}
	if out == nil || len(res.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return services.Wrap(services.ErrTransport, route.method, res.Request.URL, "decode response", err)
	}
	return nil
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Message string
}

func newStatusError(method, rawURL string, code int, body []byte) *StatusError {
	return &StatusError{Method: method, URL: rawURL, Code: code, Message: extractMessage(body)}
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: backend returned %d", e.Method, e.URL, e.Code)
}

// Is lets errors.Is match the matching service marker.
func (e *StatusError) Is(target error) bool {
	switch target {
	case services.ErrNotFound:
		return e.Code == http.StatusNotFound
	case services.ErrValidation:
		return e.Code == http.StatusBadRequest || e.Code == http.StatusUnprocessableEntity
	case services.ErrTransient:
		return e.Code >= 500
	}
	return false
}

// extractMessage pulls a human readable message from FastAPI style
// ({"detail": ...}) or envelope style ({"message": ...}) error bodies.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	for _, key := range []string{"detail", "message", "error"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case nil:
		default:
			if encoded, err := json.Marshal(v); err == nil {
				return string(encoded)
			}
		}
	}
	return ""
}
