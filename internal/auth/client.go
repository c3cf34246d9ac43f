// Package auth implements the login flow against POST /auth/login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/session"
)

const opLogin = "auth.login"

// Client logs users in and out, keeping the session store in step.
type Client struct {
	api      *httpapi.Client
	sessions *session.Manager
	validate *validator.Validate
}

// NewClient creates a login client.
func NewClient(api *httpapi.Client, sessions *session.Manager) *Client {
	return &Client{
		api:      api,
		sessions: sessions,
		validate: validator.New(),
	}
}

// Login exchanges credentials for a token and stores the session.
// Any failure clears every session key before returning.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	s, err := c.login(ctx, email, password)
	if err != nil {
		if clearErr := c.sessions.Clear(ctx); clearErr != nil {
			slog.Error("Failed to clear session after login failure", "error", clearErr)
		}
		slog.Warn("Failed login attempt", "email", email, "error", err)
		return domain.Session{}, err
	}
	slog.Info("Logged in", "email", email)
	return s, nil
}

func (c *Client) login(ctx context.Context, email, password string) (domain.Session, error) {
	req := domain.LoginRequest{Email: email, Password: password}
	if err := c.validate.Struct(req); err != nil {
		return domain.Session{}, domain.NewError(opLogin, domain.KindPrecondition, errors.New("Email and password are required"))
	}

	resp, err := c.api.R(ctx).SetBody(req).Post("/auth/login")
	if err != nil {
		return domain.Session{}, httpapi.Network(opLogin, err)
	}
	if resp.IsError() {
		return domain.Session{}, httpapi.Status(opLogin, domain.KindAuth, resp, "Login failed")
	}

	// The username is recorded as soon as the backend accepts the credentials.
	if err := c.sessions.SetUsername(ctx, email); err != nil {
		return domain.Session{}, fmt.Errorf("store username: %w", err)
	}

	var body domain.LoginResponse
	if err := httpapi.Decode(opLogin, resp, &body); err != nil {
		return domain.Session{}, err
	}
	if body.Token == "" {
		return domain.Session{}, domain.NewError(opLogin, domain.KindAuth, errors.New("Login failed"))
	}
	if err := c.sessions.SetToken(ctx, body.Token); err != nil {
		return domain.Session{}, fmt.Errorf("store token: %w", err)
	}
	return domain.Session{Username: email, Token: body.Token}, nil
}

// Logout clears the stored session.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Clear(ctx)
}
