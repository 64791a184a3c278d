// Package ckan implements the destination catalog on top of the CKAN action
// API (package_create, package_patch, package_show and package_delete).
package ckan

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/agentstation/ckansync/internal/transport"
	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
)

// CKAN actions used by the client.
const (
	ActionCreate = "package_create"
	ActionPatch  = "package_patch"
	ActionShow   = "package_show"
	ActionDelete = "package_delete"
)

// actionPath is the action API root relative to the catalog URL.
const actionPath = "/api/3/action/"

// Client talks to a CKAN catalog.
type Client struct {
	baseURL string
	http    *transport.Client
}

// Config holds the connection settings of a catalog.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
	Retries int
}

// New returns a client for the catalog at cfg.URL. The token is sent
// verbatim in the Authorization header, as CKAN expects.
func New(cfg Config, opts ...transport.Option) *Client {
	base := strings.TrimSuffix(cfg.URL, "/")
	options := []transport.Option{transport.WithTimeout(cfg.Timeout)}
	if cfg.Retries > 0 {
		options = append(options, transport.WithRetry(cfg.Retries, time.Second))
	}
	options = append(options, opts...)
	return &Client{
		baseURL: base,
		http:    transport.New(base+actionPath, &transport.HeaderAuth{Header: "Authorization"}, cfg.Token, options...),
	}
}

// DatasetURL returns the public page of a dataset.
func (c *Client) DatasetURL(name string) string {
	return c.baseURL + "/dataset/" + name
}

// envelope is the response wrapper of every CKAN action.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"__type"`
	} `json:"error,omitempty"`
}

// Create stores a new dataset.
func (c *Client) Create(ctx context.Context, ds *catalogs.Dataset) (*catalogs.Dataset, error) {
	resp, err := c.http.R(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ds).
		Post(ActionCreate)
	return c.dataset(ctx, ActionCreate, ds.Name, resp, err)
}

// Patch updates an existing dataset, addressing it by name.
func (c *Client) Patch(ctx context.Context, ds *catalogs.Dataset) (*catalogs.Dataset, error) {
	body := *ds
	if body.ID == "" {
		body.ID = body.Name
	}
	resp, err := c.http.R(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(&body).
		Post(ActionPatch)
	return c.dataset(ctx, ActionPatch, ds.Name, resp, err)
}

// Show fetches a stored dataset. An unknown name yields an
// *errors.NotFoundError.
func (c *Client) Show(ctx context.Context, name string) (*catalogs.Dataset, error) {
	resp, err := c.http.R(ctx).
		SetQueryParam("id", name).
		Get(ActionShow)
	return c.dataset(ctx, ActionShow, name, resp, err)
}

// Delete removes a dataset by name.
func (c *Client) Delete(ctx context.Context, name string) error {
	resp, err := c.http.R(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"id": name}).
		Post(ActionDelete)
	_, err = c.call(ctx, ActionDelete, name, resp, err)
	return err
}

func (c *Client) dataset(ctx context.Context, action, name string, resp *resty.Response, err error) (*catalogs.Dataset, error) {
	result, err := c.call(ctx, action, name, resp, err)
	if err != nil {
		return nil, err
	}
	var ds catalogs.Dataset
	if err := json.Unmarshal(result, &ds); err != nil {
		return nil, errors.WrapParse("json", action+" result", err)
	}
	return &ds, nil
}

// call checks the transport error, status and envelope of a response and
// returns the raw result.
func (c *Client) call(ctx context.Context, action, name string, resp *resty.Response, err error) (json.RawMessage, error) {
	logger := logging.FromContext(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("action", action).Msg("Catalog request failed")
		return nil, &errors.APIError{Action: action, Message: "request failed", Err: err}
	}
	logger.Trace().
		Str("action", action).
		Int("status", resp.StatusCode()).
		Dur("elapsed", resp.Time()).
		Msg("Catalog response")

	var env envelope
	decodeErr := transport.DecodeResponse(action, resp, &env)

	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.NewNotFoundError("dataset", name)
	}
	if resp.IsError() {
		apiErr := errors.NewAPIError(action, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
		if json.Unmarshal(resp.Body(), &env) == nil && env.Error != nil && env.Error.Message != "" {
			apiErr.Message = env.Error.Message
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	if !env.Success {
		msg := "action was not successful"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, errors.NewAPIError(action, resp.StatusCode(), msg)
	}
	return env.Result, nil
}
