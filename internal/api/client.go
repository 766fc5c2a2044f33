// Package api is the typed surface over the storefront REST backend. The
// uniform {success, message, data} envelope is decoded once here; callers
// see plain DTOs and errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/dto"
)

// Error is an HTTP-level API failure: the backend responded, but not with
// success.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Client calls the backend through the authenticating transport.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates an API client. httpClient is expected to carry the
// authenticating transport from the httpclient package.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthData, error) {
	return call[*dto.AuthData](ctx, c.http, c.baseURL, http.MethodPost, "/auth/login", req)
}

// Register creates a new account. The backend signs the new user in, so
// the response carries a token pair like login.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthData, error) {
	return call[*dto.AuthData](ctx, c.http, c.baseURL, http.MethodPost, "/auth/register", req)
}

// GoogleJWT exchanges a Google sign-in credential for a session.
func (c *Client) GoogleJWT(ctx context.Context, credential string) (*dto.AuthData, error) {
	return call[*dto.AuthData](ctx, c.http, c.baseURL, http.MethodPost, "/auth/google-jwt",
		dto.GoogleJWTRequest{Credential: credential})
}

// Logout notifies the backend that the session ended. Best-effort: callers
// treat failures as non-fatal.
func (c *Client) Logout(ctx context.Context) error {
	_, err := call[struct{}](ctx, c.http, c.baseURL, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		c.logger.Debug("logout request failed", zap.Error(err))
	}
	return err
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*dto.ProfileResponse, error) {
	return call[*dto.ProfileResponse](ctx, c.http, c.baseURL, http.MethodGet, "/auth/profile", nil)
}

// UpdateProfile updates the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	return call[*dto.ProfileResponse](ctx, c.http, c.baseURL, http.MethodPut, "/auth/profile", req)
}

// CreateOrder submits an order.
func (c *Client) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	return call[*dto.OrderResponse](ctx, c.http, c.baseURL, http.MethodPost, "/orders", req)
}

// MyOrders lists the authenticated user's orders.
func (c *Client) MyOrders(ctx context.Context) ([]dto.OrderResponse, error) {
	return call[[]dto.OrderResponse](ctx, c.http, c.baseURL, http.MethodGet, "/orders/mine", nil)
}

// CreateCheckoutSession asks the backend for a hosted payment session for
// an existing order.
func (c *Client) CreateCheckoutSession(ctx context.Context, orderID int) (*dto.CheckoutSessionResponse, error) {
	return call[*dto.CheckoutSessionResponse](ctx, c.http, c.baseURL, http.MethodPost, "/payments/create-checkout-session",
		dto.CheckoutSessionRequest{OrderID: orderID})
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	return call[*dto.HealthResponse](ctx, c.http, c.baseURL, http.MethodGet, "/utils/health", nil)
}

// envelope mirrors the backend's uniform response wrapper.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func newRequest(ctx context.Context, baseURL, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

// call performs one request/response cycle and unwraps the envelope.
func call[T any](ctx context.Context, client *http.Client, baseURL, method, path string, body any) (T, error) {
	var zero T

	req, err := newRequest(ctx, baseURL, method, path, body)
	if err != nil {
		return zero, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var env envelope[json.RawMessage]
		_ = json.NewDecoder(resp.Body).Decode(&env)
		return zero, &Error{StatusCode: resp.StatusCode, Message: env.Message}
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	if !env.Success {
		return zero, &Error{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}
