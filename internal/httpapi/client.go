// Package httpapi is the shared REST client for the backend API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/nfrund/realtimehub/internal/domain"
)

// Client issues requests against the backend base URL. No timeout and no
// retry are configured: every call is a single attempt bounded only by ctx.
type Client struct {
	rest *resty.Client
}

// Option customizes the underlying resty client.
type Option func(*resty.Client)

// WithBearer attaches a bearer token to every request.
func WithBearer(token string) Option {
	return func(r *resty.Client) {
		if token != "" {
			r.SetAuthToken(token)
		}
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	return NewWithHTTPClient(&http.Client{}, baseURL, opts...)
}

// NewWithHTTPClient creates a Client on top of an existing *http.Client.
func NewWithHTTPClient(hc *http.Client, baseURL string, opts ...Option) *Client {
	r := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	for _, opt := range opts {
		opt(r)
	}
	return &Client{rest: r}
}

// R starts a request bound to ctx.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

// Decode unmarshals the body of resp into v, reporting a malformed error.
func Decode(op string, resp *resty.Response, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return domain.NewError(op, domain.KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Network wraps a transport error.
func Network(op string, err error) error {
	return domain.NewError(op, domain.KindNetwork, err)
}

// Status builds the error for a non-2xx response. The message shown to users
// is the backend's {message}, or fallback; the status code only goes to the log.
func Status(op string, kind domain.ErrorKind, resp *resty.Response, fallback string) error {
	msg := fallback
	var apiErr domain.APIError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	slog.Warn("Backend request failed", "op", op, "status", resp.StatusCode(), "message", msg)
	return domain.NewError(op, kind, errors.New(msg))
}
