package api

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

	"flaire-cli/internal/models"

	"github.com/rs/zerolog/log"
)

// Client is a stateless wrapper around the backend's HTTP contract. Methods
// hitting session-authenticated endpoints take the bearer credential
// explicitly; the client itself holds no session state.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL. Every request is bounded
// by the given timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// AuthToken is the legacy login response.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a backend account. The response body is opaque to the
// client.
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	body := map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}
	if err := c.postJSON(ctx, "/auth/register", "", body, nil); err != nil {
		return authError(err, "Registration failed")
	}
	return nil
}

// Login performs the legacy form-encoded login and returns the raw token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthToken, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token AuthToken
	if err := c.do(req, &token); err != nil {
		return nil, authError(err, "Login failed")
	}
	return &token, nil
}

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Plan      string `json:"plan"`
	CreatedAt string `json:"created_at"`
	Token     string `json:"token"`
}

func (r *sessionResponse) toSession() *models.Session {
	return &models.Session{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Plan:      models.PlanTier(r.Plan),
		CreatedAt: r.CreatedAt,
		Token:     r.Token,
	}
}

// SignIn authenticates with email and password and returns the new session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var resp sessionResponse
	err := c.postJSON(ctx, "/auth/signin", "", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, authError(err, "Sign in failed")
	}
	return resp.toSession(), nil
}

// SignUp creates an account and returns the new session.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*models.Session, error) {
	var resp sessionResponse
	err := c.postJSON(ctx, "/auth/signup", "", credentialsRequest{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		return nil, authError(err, "Signup failed")
	}
	return resp.toSession(), nil
}

// Me fetches the current account and returns its plan tier.
func (c *Client) Me(ctx context.Context, token string) (models.PlanTier, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		Plan string `json:"plan"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return models.PlanTier(resp.Plan), nil
}

// CreateCheckout starts an external checkout for a plan upgrade and returns
// the redirect URL.
func (c *Client) CreateCheckout(ctx context.Context, token string, plan models.PlanTier) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	err := c.postJSON(ctx, "/billing/create-checkout-session", token, map[string]string{"plan": string(plan)}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// postJSON sends a JSON body and decodes a JSON response when out is non-nil.
func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, out)
}

// do executes the request, mapping any non-success status to a RemoteError
// carrying the response body text.
func (c *Client) do(req *http.Request, out any) error {
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("Calling backend")

	resp, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response body: %v", err),
		}
	}
	return nil
}
