package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	maxConcurrent  = 10
	maxErrorBody   = 4 << 10
	userAgent      = "ojterm/1.0"
)

// ErrMalformedResponse is returned when a 2xx body lacks required fields.
var ErrMalformedResponse = errors.New("malformed response")

// HTTPError is a non-2xx response from the judge API.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d from %s %s: %s", e.StatusCode, e.Method, e.Path, msg)
}

// IsUnauthorized reports whether err is a 401 or 403 from the API.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// TokenSource returns the current access token, or "" when there is none.
// It is called on every request so the token is never cached here.
type TokenSource func() string

// Client is the judge API client.
type Client struct {
	http    *http.Client
	baseURL string
	token   TokenSource
}

type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithCookieJar sets the jar that carries the refresh credential.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.http.Jar = jar }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	query  url.Values
	bearer string
	noAuth bool
}

type requestOption func(*request)

func withQuery(q url.Values) requestOption {
	return func(r *request) { r.query = q }
}

// withBearer overrides the token source for a single request.
func withBearer(token string) requestOption {
	return func(r *request) { r.bearer = token }
}

// withoutBearer marks cookie-authenticated endpoints.
func withoutBearer() requestOption {
	return func(r *request) { r.noAuth = true }
}

// do sends a JSON request and decodes a JSON response into dst (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, dst any, opts ...requestOption) error {
	var ro request
	for _, opt := range opts {
		opt(&ro)
	}

	u := c.baseURL + path
	if len(ro.query) > 0 {
		u += "?" + ro.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !ro.noAuth {
		token := ro.bearer
		if token == "" && c.token != nil {
			token = c.token()
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       errorMessage(msg),
		}
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts the "message" field of a JSON error body, falling
// back to the raw text.
func errorMessage(body []byte) string {
	var e struct {
		Message any `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != nil {
		switch m := e.Message.(type) {
		case string:
			return m
		case []any:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, "; ")
		}
	}
	return string(body)
}
