// Package api is a small client for the VODUM backend's JSON endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vodum/console/internal/panel"
)

const (
	// DefaultBaseURL is where a local VODUM instance listens.
	DefaultBaseURL = "http://127.0.0.1:5000"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// ActivityPath reports the number of running and queued tasks.
	ActivityPath = "/api/tasks/activity"

	// maxBody caps how much of a response is read.
	maxBody = 16 << 20
)

// Activity is the background task counter shown by the indicator.
type Activity struct {
	Active  int `json:"active"`
	Running int `json:"running"`
	Queued  int `json:"queued"`
}

// Client talks to one VODUM backend.
type Client struct {
	baseURL     string
	bearerToken string
	timeout     time.Duration
	httpClient  *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets the backend base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.bearerToken = token
	}
}

// WithHTTPClient sets a custom HTTP client. Redirects are still not
// followed.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a client. VODUM_URL and VODUM_TOKEN are read first so
// explicit options win.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	if u := os.Getenv("VODUM_URL"); u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	if token := os.Getenv("VODUM_TOKEN"); token != "" {
		c.bearerToken = token
	}

	for _, opt := range opts {
		opt(c)
	}

	// Actions answer with a redirect to an HTML page; the status is all
	// we need.
	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.httpClient = &hc
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	return req, nil
}

// getJSON performs a GET and decodes a JSON body into out. Anything but a
// 2xx JSON response is a FetchError.
func (c *Client) getJSON(ctx context.Context, resource, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return &FetchError{Resource: resource, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Resource: resource, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Resource: resource, StatusCode: resp.StatusCode, ContentType: ct,
			Err: fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)}
	}
	if !isJSON(ct) {
		return &FetchError{Resource: resource, StatusCode: resp.StatusCode, ContentType: ct,
			Err: fmt.Errorf("%w: content type %q", ErrNotJSON, ct)}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &FetchError{Resource: resource, StatusCode: resp.StatusCode, ContentType: ct,
			Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	return nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// List fetches the records of a panel resource, e.g. "users" or
// "logs?limit=200".
func (c *Client) List(ctx context.Context, resource string) ([]panel.Record, error) {
	var records []panel.Record
	if err := c.getJSON(ctx, resource, "/api/"+strings.TrimPrefix(resource, "/"), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Activity fetches the active background task count.
func (c *Client) Activity(ctx context.Context) (Activity, error) {
	var a Activity
	if err := c.getJSON(ctx, "tasks/activity", ActivityPath, &a); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// Invoke POSTs an action. Any 2xx or 3xx status is success.
func (c *Client) Invoke(ctx context.Context, action, path string) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader([]byte("{}")))
	if err != nil {
		return &CommandError{Action: action, Path: path, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CommandError{Action: action, Path: path, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))

	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		return &CommandError{Action: action, Path: path, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)}
	}
	return nil
}

// RunTask queues a task run.
func (c *Client) RunTask(ctx context.Context, id string) error {
	return c.Invoke(ctx, "run", "/tasks/run/"+id)
}

// ShouldRefresh asks whether the backend flagged panel data as changed.
func (c *Client) ShouldRefresh(ctx context.Context, panelID string) (bool, error) {
	var out struct {
		Refresh bool `json:"refresh"`
	}
	if err := c.getJSON(ctx, "should-refresh/"+panelID, "/api/should-refresh/"+panelID, &out); err != nil {
		return false, err
	}
	return out.Refresh, nil
}

// ClearRefresh resets a panel's should-refresh flag.
func (c *Client) ClearRefresh(ctx context.Context, panelID string) error {
	return c.Invoke(ctx, "clear-refresh", "/api/clear-refresh/"+panelID)
}
