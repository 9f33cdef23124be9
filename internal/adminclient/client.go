// Package adminclient is a Go client for the admin API. It keeps the session
// token, arms the idle monitor for admins and logs out when it fires.
package adminclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"ruralsite/internal/auth"
	"ruralsite/internal/config"
	"ruralsite/internal/models"
	console "ruralsite/internal/utils/logger"
)

var log = console.New("ADMIN-CLIENT")

// ErrNotLoggedIn is returned by calls that need a session when there is none.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api: %d %s", e.Status, e.Message)
}

// Unauthorized reports whether the server rejected the session.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// errorBody mirrors the server's error envelope. error is either a message
// or a field map.
type errorBody struct {
	Error interface{} `json:"error"`
	Code  int         `json:"code"`
}

// Hooks connect the client to a user interface.
type Hooks struct {
	// OnIdleWarning runs once per idle period before the automatic logout.
	OnIdleWarning func(remaining time.Duration)
	// OnLoggedOut navigates to the login view.
	OnLoggedOut func()
}

// File is an asset sent with a create or update.
type File struct {
	Field string
	Name  string
	Data  []byte
}

// Page is one page of a list response.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type loginResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expiresAt"`
	Principal *models.AdminPrincipal `json:"principal"`
}

type Client struct {
	http    *resty.Client
	monitor *auth.ActivityMonitor
	hooks   Hooks

	mu        sync.Mutex
	token     string
	principal *models.AdminPrincipal
}

// New creates a client for the API rooted at baseURL, for example
// "https://example.org/api/v1".
func New(baseURL string, activity config.ActivityConfig, hooks Hooks, opts ...auth.MonitorOption) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
		hooks: hooks,
	}
	c.monitor = auth.NewActivityMonitor(activity, auth.ActivityHooks{
		OnWarning: hooks.OnIdleWarning,
		OnLogout: func() {
			log.Info("Signing out after inactivity")
			_ = c.Logout(context.Background())
		},
	}, opts...)
	return c
}

// Login signs in and, for admins, starts the idle countdown.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AdminPrincipal, error) {
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/login")
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	c.mu.Lock()
	c.token = out.Token
	c.principal = out.Principal
	c.mu.Unlock()

	if out.Principal != nil {
		c.monitor.Arm(out.Principal.Role)
	}
	return out.Principal, nil
}

// Logout drops the local session first, then tells the server and finally
// runs the navigation hook. The server call is best effort.
func (c *Client) Logout(ctx context.Context) error {
	c.monitor.Stop()

	c.mu.Lock()
	hadSession := c.token != ""
	c.token = ""
	c.principal = nil
	c.mu.Unlock()

	var callErr error
	if hadSession {
		resp, err := c.http.R().SetContext(ctx).Post("/logout")
		switch {
		case err != nil:
			callErr = fmt.Errorf("logout request failed: %w", err)
		case resp.IsError():
			callErr = apiError(resp)
		}
		if callErr != nil {
			log.Warn("Logout call failed: %v", callErr)
		}
	}

	if c.hooks.OnLoggedOut != nil {
		c.hooks.OnLoggedOut()
	}
	return callErr
}

// Touch forwards an interaction event to the idle monitor.
func (c *Client) Touch(event string) bool {
	return c.monitor.Touch(event)
}

// Armed reports whether the idle countdown is running.
func (c *Client) Armed() bool {
	return c.monitor.Armed()
}

// Close stops the idle monitor without logging out.
func (c *Client) Close() {
	c.monitor.Stop()
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) Principal() *models.AdminPrincipal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

// Me fetches the signed-in principal.
func (c *Client) Me(ctx context.Context) (*models.AdminPrincipal, error) {
	var p models.AdminPrincipal
	if err := c.send(ctx, http.MethodGet, "/auth/me", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create posts a new record of resource ("products", "blog-posts", ...).
func (c *Client) Create(ctx context.Context, resource string, fields map[string]string, file *File, out interface{}) error {
	return c.send(ctx, http.MethodPost, "/"+resource, fields, file, out)
}

// Update patches an existing record. Omitted fields keep their values.
func (c *Client) Update(ctx context.Context, resource, id string, fields map[string]string, file *File, out interface{}) error {
	return c.send(ctx, http.MethodPatch, "/"+resource+"/"+id, fields, file, out)
}

func (c *Client) Delete(ctx context.Context, resource, id string) error {
	return c.send(ctx, http.MethodDelete, "/"+resource+"/"+id, nil, nil, nil)
}

// List reads the admin listing of resource, inactive records included.
func (c *Client) List(ctx context.Context, resource string, page, limit int, out interface{}) error {
	path := fmt.Sprintf("/admin/%s?page=%d&limit=%d", resource, page, limit)
	return c.send(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, fields map[string]string, file *File, out interface{}) error {
	token := c.Token()
	if token == "" {
		return ErrNotLoggedIn
	}

	req := c.http.R().SetContext(ctx).SetAuthToken(token).SetError(&errorBody{})
	if out != nil {
		req.SetResult(out)
	}
	switch {
	case file != nil:
		req.SetMultipartFormData(fields)
		req.SetFileReader(file.Field, file.Name, bytes.NewReader(file.Data))
	case fields != nil:
		req.SetBody(fields)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := apiError(resp)
		if apiErr.Unauthorized() {
			c.expire()
		}
		return apiErr
	}
	return nil
}

// expire ends a session the server no longer accepts.
func (c *Client) expire() {
	c.monitor.Stop()
	c.mu.Lock()
	hadSession := c.token != ""
	c.token = ""
	c.principal = nil
	c.mu.Unlock()
	if hadSession && c.hooks.OnLoggedOut != nil {
		c.hooks.OnLoggedOut()
	}
}

func apiError(resp *resty.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	body, ok := resp.Error().(*errorBody)
	if !ok || body == nil {
		return apiErr
	}
	switch e := body.Error.(type) {
	case string:
		apiErr.Message = e
	case map[string]interface{}:
		apiErr.Fields = make(map[string]string, len(e))
		for k, v := range e {
			apiErr.Fields[k] = fmt.Sprint(v)
		}
		apiErr.Message = "validation failed"
	}
	return apiErr
}
