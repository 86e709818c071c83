// Package todoapi implements the service.Service interface over the to-do REST API.
package todoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"todo/internal/config"
	"todo/internal/logging"
	"todo/internal/service"
	"todo/internal/session"
)

const (
	// DefaultPageSize is the number of tasks per page.
	DefaultPageSize = 10

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 4 << 20
)

// Client implements service.Service against the remote API.
// It holds no task state; every call goes to the server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	store   session.Store
	log     *slog.Logger
	now     func() time.Time
}

// New creates a client from config. The bearer token is read from store on every call.
func New(cfg *config.Config, store session.Store, logger *slog.Logger) (*Client, error) {
	return NewWithHTTPClient(cfg.APIURL, &http.Client{Timeout: cfg.Timeout}, store, logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, store session.Store, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url: %s", baseURL)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		baseURL: u,
		http:    httpClient,
		store:   store,
		log:     logger,
		now:     time.Now,
	}, nil
}

// SetClock overrides the time source used for token expiry checks.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// ListTasks returns one page of tasks.
func (c *Client) ListTasks(ctx context.Context, q service.ListQuery) (service.TaskPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(size))
	if q.Completed != nil {
		params.Set("completed", strconv.FormatBool(*q.Completed))
	}

	var out service.TaskPage
	if err := c.do(ctx, call{method: http.MethodGet, path: "task/all/", query: params, auth: true}, &out); err != nil {
		return service.TaskPage{}, err
	}
	if out.Results == nil {
		out.Results = []service.Task{}
	}
	return out, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id string) (service.Task, error) {
	var out service.Task
	if err := c.do(ctx, call{method: http.MethodGet, path: taskPath(id), auth: true}, &out); err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	var out service.Task
	if err := c.do(ctx, call{method: http.MethodPost, path: "task/", body: fields, auth: true}, &out); err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var out service.Task
	if err := c.do(ctx, call{method: http.MethodPatch, path: taskPath(id), body: patch, auth: true}, &out); err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: taskPath(id), auth: true}, nil)
}

// Login exchanges email and password for tokens.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.AuthTokens, error) {
	var out service.AuthTokens
	if err := c.do(ctx, call{method: http.MethodPost, path: "user/login/", body: creds}, &out); err != nil {
		return service.AuthTokens{}, err
	}
	return out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, creds service.Credentials) (service.AuthTokens, error) {
	var out service.AuthTokens
	if err := c.do(ctx, call{method: http.MethodPost, path: "user/register/", body: creds}, &out); err != nil {
		return service.AuthTokens{}, err
	}
	return out, nil
}

// GoogleLogin hands a Google identity to the backend.
func (c *Client) GoogleLogin(ctx context.Context, id service.GoogleIdentity) (service.AuthTokens, error) {
	var out service.AuthTokens
	if err := c.do(ctx, call{method: http.MethodPost, path: "user/google/", body: id}, &out); err != nil {
		return service.AuthTokens{}, err
	}
	return out, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (service.User, error) {
	var out service.User
	if err := c.do(ctx, call{method: http.MethodGet, path: "user/me/", auth: true}, &out); err != nil {
		return service.User{}, err
	}
	return out, nil
}

// UpdateMe applies a partial profile update.
func (c *Client) UpdateMe(ctx context.Context, patch service.UserPatch) error {
	return c.do(ctx, call{method: http.MethodPatch, path: "user/me/", body: patch, auth: true}, nil)
}

func taskPath(id string) string {
	return "task/" + url.PathEscape(id) + "/"
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

// do issues one request. Expected HTTP failures come back as *service.Error;
// a success response that cannot be decoded is returned as a plain error.
func (c *Client) do(ctx context.Context, r call, out any) error {
	var token *oauth2.Token
	if r.auth {
		s, err := c.store.Get(ctx)
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			// An unreadable session is not an expired one.
			c.log.Warn("cannot read session", "error", err)
			return &service.Error{Kind: service.KindUnknown, Message: err.Error(), Err: err}
		}
		if err != nil || !s.AccessValid(c.now()) {
			c.log.Debug("no valid access token, request not sent", "method", r.method, "path", r.path)
			return service.ErrNotAuthenticated
		}
		token = &s.Token
	}

	u, err := url.Parse(c.baseURL.String() + r.path)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	u.RawQuery = r.query.Encode()

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if token != nil {
		token.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", r.method, "path", u.Path, "request_id", requestID, "error", err)
		return wrapTransportError(err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request",
		"method", r.method,
		"path", u.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &service.Error{Kind: service.KindNetwork, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data, r.auth)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("malformed response from %s %s: empty body", r.method, u.Path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed response from %s %s: %w", r.method, u.Path, err)
	}
	return nil
}
