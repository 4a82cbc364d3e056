package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for an access token and identity. The response
// also sets the refresh cookie on the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", Credentials{Email: email, Password: password}, &resp, withoutBearer())
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if !resp.Valid() {
		return nil, fmt.Errorf("logging in: %w", ErrMalformedResponse)
	}
	return &resp, nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &resp, withoutBearer()); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	if !resp.Valid() {
		return nil, fmt.Errorf("registering: %w", ErrMalformedResponse)
	}
	return &resp, nil
}

// Refresh mints a new access token from the refresh cookie.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, &resp, withoutBearer()); err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("refreshing token: %w", ErrMalformedResponse)
	}
	return resp.AccessToken, nil
}

// Me returns the identity that token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user, withBearer(token)); err != nil {
		return nil, fmt.Errorf("fetching identity: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("fetching identity: %w", ErrMalformedResponse)
	}
	return &user, nil
}

// Logout invalidates the refresh cookie on the server.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, withoutBearer()); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
