package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cellar-market/wine-marketplace/internal/domain"
)

// LoginResult is the outcome of a successful credential exchange.
type LoginResult struct {
	Token string
	User  domain.AdminUser
}

// Authenticator performs the network half of the session protocol.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Profile(ctx context.Context, token string) (*domain.AdminUser, error)
}

// Revoker is implemented by authenticators that can invalidate a token server side.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// Client talks to the marketplace API auth endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient sets a custom HTTP client.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string           `json:"accessToken"`
	User        domain.AdminUser `json:"user"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token. Any failure is a *LoginError.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, newLoginError(0, "", fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, newLoginError(0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newLoginError(0, "", fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newLoginError(resp.StatusCode, readMessage(resp.Body), nil)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, newLoginError(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	if out.AccessToken == "" {
		return nil, newLoginError(resp.StatusCode, "", fmt.Errorf("response carried no token"))
	}
	return &LoginResult{Token: out.AccessToken, User: out.User}, nil
}

// Profile returns the profile behind token. Non-success responses wrap ErrInvalidSession.
func (c *Client) Profile(ctx context.Context, token string) (*domain.AdminUser, error) {
	resp, err := c.authorized(ctx, http.MethodGet, "/api/auth/profile", token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w (status %d)", ErrInvalidSession, resp.StatusCode)
	}

	var user domain.AdminUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &user, nil
}

// Revoke asks the API to stop accepting token.
func (c *Client) Revoke(ctx context.Context, token string) error {
	resp, err := c.authorized(ctx, http.MethodPost, "/api/auth/logout", token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("logout failed (status %d): %s", resp.StatusCode, readMessage(resp.Body))
	}
	return nil
}

func (c *Client) authorized(ctx context.Context, method, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}
