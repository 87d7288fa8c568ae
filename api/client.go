// Package api implements the client for the remote ordering service. The
// service is an opaque HTTP collaborator; this package owns the wire contract
// and the translation of transport and status failures into the sentinel
// error kinds the reconciler dispatches on.
//
// Error translation at this boundary:
//   - transport-level failure (dial, timeout, DNS) -> ErrNetworkUnavailable
//   - 401 on /login                                -> ErrCredentialRejected
//   - 401/403 on bearer-authenticated endpoints    -> ErrUnauthenticated
//   - 5xx                                          -> ErrServerError
//   - other non-2xx                                -> StorefrontError with the
//     server's {message} payload
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fastfoodmaniya/storefront/core"
)

// Client talks to the remote ordering API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     core.Logger
	telemetry  core.Telemetry
}

// Options configures the API client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, overrides Timeout when set
	Logger     core.Logger
	Telemetry  core.Telemetry
}

// NewClient creates a client for the remote ordering API
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required: %w", core.ErrInvalidConfiguration)
	}
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}
	if opts.Telemetry == nil {
		opts.Telemetry = &core.NoOpTelemetry{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     opts.Logger,
		telemetry:  opts.Telemetry,
	}, nil
}

// Wire types

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID string `json:"userId"`
}

// OrderRequest is the submission payload for POST /api/orders
type OrderRequest struct {
	Items   []core.LineItem `json:"items"`
	Total   int             `json:"total"`
	Phone   string          `json:"phone"`
	Address string          `json:"address"`
}

type orderResponse struct {
	OrderID string `json:"orderId"`
}

type apiError struct {
	Message string `json:"message"`
}

// Login exchanges credentials for an access token.
// A 401 means the server rejected the credentials; callers must treat that as
// terminal and not fall back to any local lookup.
func (c *Client) Login(ctx context.Context, email, password string) (core.Credential, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		if isStatus(err, http.StatusUnauthorized) {
			return core.Credential{}, fmt.Errorf("api.Login: %w", core.ErrCredentialRejected)
		}
		return core.Credential{}, err
	}
	return core.Credential{
		AccessToken: resp.AccessToken,
		UserID:      resp.UserID,
		DisplayName: resp.Username,
	}, nil
}

// Register creates a remote account and returns the new user id
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp registerResponse
	err := c.do(ctx, http.MethodPost, "/register", "", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		if isStatus(err, http.StatusBadRequest) {
			return "", fmt.Errorf("api.Register: %w", core.ErrUserExists)
		}
		return "", err
	}
	return resp.UserID, nil
}

// Logout invalidates the session server-side. Best-effort for callers:
// a network failure here does not keep the local session alive.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", "", nil, nil)
}

// CreateOrder submits an order and returns the remote order id
func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest) (string, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", token, req, &resp); err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

// Orders fetches the authenticated user's order history, oldest first
func (c *Client) Orders(ctx context.Context, token string) ([]core.Order, error) {
	var orders []core.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Profile fetches the authenticated user's account view
func (c *Client) Profile(ctx context.Context, token string) (core.UserProfile, error) {
	var profile core.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/user", token, nil, &profile); err != nil {
		return core.UserProfile{}, err
	}
	return profile, nil
}

// statusError preserves the HTTP status for translation by the endpoint
// methods; it always wraps one of the sentinel error kinds
type statusError struct {
	status  int
	message string
	err     error
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("status %d: %s", e.status, e.message)
	}
	return fmt.Sprintf("status %d: %v", e.status, e.err)
}

func (e *statusError) Unwrap() error {
	return e.err
}

func isStatus(err error, status int) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	return se.status == status
}

// do executes one JSON round trip against the remote API
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	ctx, span := c.telemetry.StartSpan(ctx, "api"+strings.ReplaceAll(path, "/", "."))
	defer span.End()
	span.SetAttribute("http.method", method)
	span.SetAttribute("http.path", path)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("api: build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("Remote API unreachable", map[string]interface{}{
			"operation": "api_request",
			"method":    method,
			"path":      path,
			"error":     err.Error(),
		})
		// Transport failure, not a server verdict: this is the only error
		// class that may trigger local fallback upstream
		return fmt.Errorf("api: %s %s: %w", method, path, core.ErrNetworkUnavailable)
	}
	defer resp.Body.Close()

	c.logger.Debug("Remote API response", map[string]interface{}{
		"operation":   "api_request",
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decode response from %s: %w", path, core.ErrServerError)
		}
		return nil
	}

	// Non-2xx carries {message: string}
	var ae apiError
	_ = json.NewDecoder(resp.Body).Decode(&ae)

	kind := c.classifyStatus(resp.StatusCode, path)
	span.RecordError(kind)
	return &statusError{status: resp.StatusCode, message: ae.Message, err: kind}
}

// classifyStatus maps an HTTP status to a sentinel error kind
func (c *Client) classifyStatus(status int, path string) error {
	switch {
	case status >= 500:
		return core.ErrServerError
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if path == "/login" {
			return core.ErrCredentialRejected
		}
		return core.ErrUnauthenticated
	case status == http.StatusNotFound:
		return core.ErrOrderNotFound
	default:
		return core.ErrServerError
	}
}
