// Package backend is the JSON-over-HTTP client for the employee and activity REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aimd54/staff-directory/internal/config"
	"github.com/aimd54/staff-directory/internal/metrics"
	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a backend client with a traced transport.
func NewClient(cfg *config.BackendConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// APIError is a non-2xx answer, or a 2xx answer carrying success=false.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// request describes one backend call. route is the templated path used as a metric label.
type request struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveBackendRequest(r.method, r.route, "transport_error", elapsed.Seconds())
		c.log.Debug().Err(err).Str("method", r.method).Str("path", r.path).Msg("Backend request failed")
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ObserveBackendRequest(r.method, r.route, strconv.Itoa(resp.StatusCode), elapsed.Seconds())
	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("Backend request")
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     r.method,
			URL:        r.path,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Message:    errorMessage(raw),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

// errorMessage extracts {"error": ...} or {"message": ...} from a response body.
func errorMessage(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Message
	}
	return ""
}

func employeePath(id string) string {
	return "/api/employees/" + url.PathEscape(id)
}

func projectPath(id string) string {
	return "/api/projects/" + url.PathEscape(id)
}

// Login checks credentials and returns the employee record of the account.
// A 2xx answer with success=false is reported as a 401 APIError.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Employee, error) {
	var resp struct {
		Success bool             `json:"success"`
		User    *models.Employee `json:"user"`
		Error   string           `json:"error"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/auth/login",
		path:   "/api/auth/login",
		body:   map[string]string{"email": email, "password": password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		msg := resp.Error
		if msg == "" {
			msg = "Invalid credentials"
		}
		return nil, &APIError{Method: http.MethodPost, URL: "/api/auth/login", StatusCode: http.StatusUnauthorized, Message: msg}
	}
	return resp.User, nil
}

// UpdatePassword changes the password of empid.
func (c *Client) UpdatePassword(ctx context.Context, empid, currentPassword, newPassword string) error {
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/auth/update-password",
		path:   "/api/auth/update-password",
		body: map[string]string{
			"empid":           empid,
			"currentPassword": currentPassword,
			"newPassword":     newPassword,
		},
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Failed to update password"
		}
		return &APIError{Method: http.MethodPost, URL: "/api/auth/update-password", StatusCode: http.StatusBadRequest, Message: msg}
	}
	return nil
}

// ListEmployees returns every employee record.
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/employees",
		path:   "/api/employees",
	}, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// GetEmployee returns one employee. Some deployments wrap the record in an array.
func (c *Client) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/employees/{id}",
		path:   employeePath(id),
	}, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []models.Employee
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode employee: %w", err)
		}
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}

	var emp models.Employee
	if err := json.Unmarshal(raw, &emp); err != nil {
		return nil, fmt.Errorf("failed to decode employee: %w", err)
	}
	return &emp, nil
}

// UpdateEmployee writes fields of employee id with one verb. PUT and PATCH target the
// record; POST targets the collection with empid embedded in the body.
func (c *Client) UpdateEmployee(ctx context.Context, verb, id string, fields map[string]any) error {
	r := request{method: strings.ToUpper(verb)}
	switch r.method {
	case http.MethodPut, http.MethodPatch:
		r.route = "/api/employees/{id}"
		r.path = employeePath(id)
		r.body = fields
	case http.MethodPost:
		body := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			body[k] = v
		}
		body["empid"] = id
		r.route = "/api/employees"
		r.path = "/api/employees"
		r.body = body
	default:
		return fmt.Errorf("unsupported update verb %q", verb)
	}
	return c.do(ctx, r, nil)
}

// ListProjects returns every activity.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/projects",
		path:   "/api/projects",
	}, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates an activity owned by empid.
func (c *Client) CreateProject(ctx context.Context, p models.Project, empid string) (*models.Project, error) {
	body, err := projectBody(p, map[string]string{"empid": empid, "user_empid": empid})
	if err != nil {
		return nil, err
	}
	var created models.Project
	if err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/projects",
		path:   "/api/projects",
		body:   body,
	}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProject edits an activity; the backend checks that userEmpID owns it.
func (c *Client) UpdateProject(ctx context.Context, id string, p models.Project, userEmpID string) (*models.Project, error) {
	body, err := projectBody(p, map[string]string{"user_empid": userEmpID})
	if err != nil {
		return nil, err
	}
	var updated models.Project
	if err := c.do(ctx, request{
		method: http.MethodPatch,
		route:  "/api/projects/{id}",
		path:   projectPath(id),
		body:   body,
	}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateProjectStatus changes only the status of an activity; the backend checks that
// userEmpID owns it.
func (c *Client) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus, userEmpID string) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		route:  "/api/projects/{id}/status",
		path:   projectPath(id) + "/status",
		body:   map[string]string{"status": string(status), "user_empid": userEmpID},
	}, nil)
}

// DeleteProject deletes an activity; the backend checks that userEmpID owns it.
func (c *Client) DeleteProject(ctx context.Context, id, userEmpID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/api/projects/{id}",
		path:   projectPath(id),
		body:   map[string]string{"user_empid": userEmpID},
	}, nil)
}

// DashboardMetrics returns the aggregate metrics document for a range
// (All, Daily, Weekly or Monthly). The document is passed through untouched.
func (c *Client) DashboardMetrics(ctx context.Context, rangeName string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/employees/dashboard-metrics",
		path:   "/api/employees/dashboard-metrics",
		query:  url.Values{"range": {rangeName}},
	}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Subscribe registers a web push subscription for empid.
func (c *Client) Subscribe(ctx context.Context, subscription json.RawMessage, empid string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/notifications/subscribe",
		path:   "/api/notifications/subscribe",
		body: map[string]any{
			"subscription": subscription,
			"empid":        empid,
		},
	}, nil)
}

func projectBody(p models.Project, extra map[string]string) (map[string]json.RawMessage, error) {
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &body); err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	for k, v := range extra {
		quoted, _ := json.Marshal(v)
		body[k] = quoted
	}
	return body, nil
}
