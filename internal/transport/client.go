// Package transport provides the authenticated HTTP client used to talk to
// the destination catalog.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/agentstation/ckansync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Client provides HTTP client functionality with authentication.
type Client struct {
	http *resty.Client
	auth Authenticator
	key  string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client, which tests use to
// point the client at an httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).SetBaseURL(c.http.BaseURL)
		c.install()
	}
}

// WithRetry retries GET requests that failed at the network level or with
// a 5xx status. Other methods are sent once.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryCount(count).
			SetRetryWaitTime(wait).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
					return false
				}
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}
}

// New creates a client for baseURL that authenticates every request with
// auth and apiKey.
func New(baseURL string, auth Authenticator, apiKey string, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(DefaultHTTPTimeout),
		auth: auth,
		key:  apiKey,
	}
	c.install()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// install registers the common headers and the authentication hook.
func (c *Client) install() {
	c.http.SetHeader("Accept", "application/json")
	c.http.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
		if c.key != "" {
			c.auth.Apply(req, c.key)
		}
		return nil
	})
}

// R starts a request bound to ctx.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// DecodeResponse decodes a successful JSON response into target. Non-2xx
// responses become an *errors.APIError carrying the body as message.
func DecodeResponse(action string, resp *resty.Response, target any) error {
	if resp.IsError() {
		return errors.NewAPIError(action, resp.StatusCode(), string(resp.Body()))
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), target); err != nil {
		return errors.WrapParse("json", action+" response", err)
	}
	return nil
}
