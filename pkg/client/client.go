// Package client is a Go client for the NutriFit plan API.
package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nutrifit/internal/models"
	"nutrifit/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nutrifit: %d: %s", e.StatusCode, e.Message)
}

// Client talks to a NutriFit server. It is safe for concurrent use once
// configured.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds every request. The default is 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token. Call it before sharing the client.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ListPlans returns every plan.
func (c *Client) ListPlans() ([]models.Plan, error) {
	var plans []models.Plan
	if err := c.do(fiber.MethodGet, "/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetPlan returns one plan with its user and meals.
func (c *Client) GetPlan(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := c.do(fiber.MethodGet, fmt.Sprintf("/plans/%d", id), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlansForUser returns the plans owned by userID.
func (c *Client) ListPlansForUser(userID uint) ([]models.Plan, error) {
	var plans []models.Plan
	if err := c.do(fiber.MethodGet, fmt.Sprintf("/plans/user/%d", userID), nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// CreatePlan creates a plan with its meals.
func (c *Client) CreatePlan(req *validation.CreatePlanRequest) (*models.Plan, error) {
	var plan models.Plan
	if err := c.do(fiber.MethodPost, "/plans", req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdatePlan sends the supplied fields of req.
func (c *Client) UpdatePlan(id uint, req *validation.UpdatePlanRequest) (*models.Plan, error) {
	var plan models.Plan
	if err := c.do(fiber.MethodPut, fmt.Sprintf("/plans/%d", id), req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeletePlan deletes a plan and its meals.
func (c *Client) DeletePlan(id uint) error {
	return c.do(fiber.MethodDelete, fmt.Sprintf("/plans/%d", id), nil, nil)
}

// Login exchanges credentials for a token and keeps it for later requests.
func (c *Client) Login(email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := validation.LoginRequest{Email: email, Password: password}
	if err := c.do(fiber.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

func (c *Client) do(method, path string, in, out interface{}) error {
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	a.Timeout(c.timeout)
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if in != nil {
		a.JSON(in)
	}

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("nutrifit: failed to build request: %w", err)
	}

	// Bytes releases the agent.
	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("nutrifit: %s %s: %w", method, path, errs[0])
	}

	if status < 200 || status > 299 {
		apiErr := &APIError{StatusCode: status}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("nutrifit: failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
