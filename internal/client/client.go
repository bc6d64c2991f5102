// Package client talks to the FitList API: authentication for the session
// manager, record mutations and websocket snapshot subscriptions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

// DefaultTimeout bounds plain request/response calls. Subscriptions are
// bounded by their context only.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the {"error","code"} body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []string // validation failures only
	Reason  string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Client is a thin HTTP client over the API. It holds no identity; record
// stores are handed a TokenSource.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	c := &Client{baseURL: u, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = u.Path + apiPrefix + path
	u.RawQuery = query.Encode()
	return u.String()
}

// websocketURL maps the API URL onto ws/wss.
func (c *Client) websocketURL(path string, query url.Values) string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = u.Path + apiPrefix + path
	u.RawQuery = query.Encode()
	return u.String()
}

// do sends body as JSON and decodes a 2xx response into out. Error
// responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error  string   `json:"error"`
		Code   string   `json:"code"`
		Fields []string `json:"fields"`
		Reason string   `json:"reason"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{
		Status:  resp.StatusCode,
		Code:    body.Code,
		Message: body.Error,
		Fields:  body.Fields,
		Reason:  body.Reason,
	}
}
