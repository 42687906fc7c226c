// Package identity talks to the external identity provider that issues the
// bearer tokens this service verifies.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no provider URL is set.
var ErrNotConfigured = errors.New("identity provider not configured")

// UpstreamError carries a non-2xx provider response.
type UpstreamError struct {
	Status  int
	Message string
	Body    json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Message)
}

// SignupResult is the provider's signup response plus the new user id.
type SignupResult struct {
	UserID uuid.UUID
	Raw    json.RawMessage
}

// Client calls the provider's password auth endpoints.
type Client struct {
	baseURL string
	anonKey string
	timeout time.Duration
}

// NewClient builds a client. baseURL has no trailing slash.
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: baseURL, anonKey: anonKey, timeout: timeout}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers an account and returns the provider's user id.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignupResult, error) {
	raw, err := c.post(ctx, "/auth/v1/signup", "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var body struct {
		ID   string `json:"id"`
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	idText := body.ID
	if body.User != nil && body.User.ID != "" {
		idText = body.User.ID
	}
	userID, err := uuid.Parse(idText)
	if err != nil {
		return nil, fmt.Errorf("signup response has no user id: %w", err)
	}
	return &SignupResult{UserID: userID, Raw: raw}, nil
}

// SignIn exchanges credentials for a session and returns the raw response.
func (c *Client) SignIn(ctx context.Context, email, password string) (json.RawMessage, error) {
	return c.post(ctx, "/auth/v1/token", "grant_type=password", credentials{Email: email, Password: password})
}

func (c *Client) post(ctx context.Context, path, query string, payload any) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Post(c.baseURL + path)
	agent.Set("apikey", c.anonKey)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.anonKey)
	if query != "" {
		agent.QueryString(query)
	}
	agent.JSON(payload)
	agent.Timeout(c.deadline(ctx))
	if err := agent.Parse(); err != nil {
		return nil, err
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if status < 200 || status > 299 {
		return nil, &UpstreamError{Status: status, Message: upstreamMessage(body), Body: body}
	}
	return json.RawMessage(body), nil
}

// deadline is the configured timeout, shortened by ctx's deadline.
func (c *Client) deadline(ctx context.Context) time.Duration {
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func upstreamMessage(body []byte) string {
	var parsed struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "request rejected"
	}
	for _, candidate := range []string{parsed.ErrorDescription, parsed.Msg, parsed.Message, parsed.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return "request rejected"
}
