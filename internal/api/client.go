package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sketchwink/sketchwink/internal/model"
)

// APIError is a failure reported by the SketchWink service. Message is
// the server's own wording and is surfaced to the user verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Config holds the remote service connection settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the SketchWink profile service. All business rules
// live server-side; the client only ships typed payloads back and forth.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody matches the service's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb errorBody
		json.NewDecoder(resp.Body).Decode(&eb)
		return &APIError{Status: resp.StatusCode, Message: eb.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ListProfiles fetches all family profiles for the account.
func (c *Client) ListProfiles(ctx context.Context) ([]model.FamilyProfile, error) {
	var profiles []model.FamilyProfile
	if err := c.do(ctx, http.MethodGet, "/api/profiles", nil, &profiles); err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = []model.FamilyProfile{}
	}
	return profiles, nil
}

// GetPermissions fetches the account's plan limits.
func (c *Client) GetPermissions(ctx context.Context) (*model.AccountPermissions, error) {
	var perms model.AccountPermissions
	if err := c.do(ctx, http.MethodGet, "/api/account/permissions", nil, &perms); err != nil {
		return nil, err
	}
	return &perms, nil
}

// CreateProfile creates a new family profile.
func (c *Client) CreateProfile(ctx context.Context, req model.CreateProfileRequest) (*model.FamilyProfile, error) {
	var p model.FamilyProfile
	if err := c.do(ctx, http.MethodPost, "/api/profiles", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies a partial update to a profile.
func (c *Client) UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.FamilyProfile, error) {
	var p model.FamilyProfile
	if err := c.do(ctx, http.MethodPatch, "/api/profiles/"+id, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProfile deletes a profile by id.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/profiles/"+id, nil, nil)
}

// SelectProfile activates a profile. pin must be empty for profiles
// without one; for PIN-protected profiles a wrong pin fails with the
// server's rejection message.
func (c *Client) SelectProfile(ctx context.Context, id, pin string) (*model.FamilyProfile, error) {
	req := model.SelectProfileRequest{ProfileID: id}
	if pin != "" {
		req.PIN = &pin
	}
	var p model.FamilyProfile
	if err := c.do(ctx, http.MethodPost, "/api/profiles/select", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ForgotPIN triggers out-of-band PIN recovery (the service emails the
// account holder).
func (c *Client) ForgotPIN(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/profiles/pin/forgot", model.ForgotPINRequest{ProfileID: id}, nil)
}

// GetThumbnail fetches raw thumbnail bytes for a piece of generated
// content. Callers are expected to go through imagecache.
func (c *Client) GetThumbnail(ctx context.Context, contentID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/content/"+contentID+"/thumbnail", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb errorBody
		json.NewDecoder(resp.Body).Decode(&eb)
		return nil, &APIError{Status: resp.StatusCode, Message: eb.Error}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
