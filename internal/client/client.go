// Package client talks to the Premium Homes REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
	"premium-homes/internal/search"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:5001/api"

// TokenSource supplies the bearer token for authenticated calls. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// SetTokenSource swaps the token source after construction.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, withAuth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if withAuth {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return &ConnectError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectError{BaseURL: c.baseURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{
			Status:  status,
			Message: fmt.Sprintf("Server error: %d %s", status, http.StatusText(status)),
		}
	}
	switch {
	case payload.Error != "":
		return &APIError{Status: status, Message: payload.Error}
	case payload.Message != "":
		return &APIError{Status: status, Message: payload.Message}
	default:
		return &APIError{Status: status, Message: fmt.Sprintf("HTTP error! status: %d", status)}
	}
}

func validate(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Message: errs.Message(err)}
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	if username == "" || password == "" {
		return nil, &ValidationError{Message: "Username and password are required"}
	}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, models.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an agent account and its profile.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, &ValidationError{Message: "Username and password are required"}
	}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", false, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify checks the current token with the server.
func (c *Client) Verify(ctx context.Context) (*models.VerifyResponse, error) {
	var resp models.VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify", true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListProperties(ctx context.Context) ([]models.Property, error) {
	properties := []models.Property{}
	if err := c.do(ctx, http.MethodGet, "/properties", true, nil, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

// SearchProperties asks the server to apply criteria.
func (c *Client) SearchProperties(ctx context.Context, criteria search.Criteria) ([]models.Property, error) {
	path := "/search"
	if q := criteria.Values(); len(q) > 0 {
		path += "?" + q.Encode()
	}
	properties := []models.Property{}
	if err := c.do(ctx, http.MethodGet, path, true, nil, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (c *Client) GetProperty(ctx context.Context, id int) (*models.Property, error) {
	var p models.Property
	if err := c.do(ctx, http.MethodGet, "/properties/"+strconv.Itoa(id), true, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error) {
	if err := validate(p.Validate()); err != nil {
		return nil, err
	}
	var created models.Property
	if err := c.do(ctx, http.MethodPost, "/properties", true, p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProperty(ctx context.Context, id int, p *models.Property) (*models.Property, error) {
	if err := validate(p.Validate()); err != nil {
		return nil, err
	}
	var updated models.Property
	if err := c.do(ctx, http.MethodPut, "/properties/"+strconv.Itoa(id), true, p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProperty(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/properties/"+strconv.Itoa(id), true, nil, nil)
}

// ListAgents returns an empty list instead of an error when the call fails.
func (c *Client) ListAgents(ctx context.Context) []models.Agent {
	agents := []models.Agent{}
	if err := c.do(ctx, http.MethodGet, "/agents", true, nil, &agents); err != nil {
		return []models.Agent{}
	}
	return agents
}

func (c *Client) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var a models.Agent
	if err := c.do(ctx, http.MethodGet, "/agents/"+id, true, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateAgent(ctx context.Context, a *models.Agent) (*models.Agent, error) {
	if err := validate(a.Validate()); err != nil {
		return nil, err
	}
	var created models.Agent
	if err := c.do(ctx, http.MethodPost, "/agents", true, a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateAgent(ctx context.Context, id string, a *models.Agent) (*models.Agent, error) {
	var updated models.Agent
	if err := c.do(ctx, http.MethodPut, "/agents/"+id, true, a, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/agents/"+id, true, nil, nil)
}

// File is one upload part.
type File struct {
	Name string
	Data io.Reader
}

// UploadImage stores one image and returns its absolute URL.
func (c *Client) UploadImage(ctx context.Context, f File) (string, error) {
	var img models.UploadedImage
	if err := c.upload(ctx, "/upload/image", "image", []File{f}, &img); err != nil {
		return "", err
	}
	return c.absolute(img.URL), nil
}

// UploadImages stores several images and returns their absolute URLs in order.
func (c *Client) UploadImages(ctx context.Context, files []File) ([]string, error) {
	var resp struct {
		Images []models.UploadedImage `json:"images"`
	}
	if err := c.upload(ctx, "/upload/images", "images", files, &resp); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(resp.Images))
	for _, img := range resp.Images {
		urls = append(urls, c.absolute(img.URL))
	}
	return urls, nil
}

func (c *Client) upload(ctx context.Context, path, field string, files []File, out any) error {
	if len(files) == 0 {
		return &ValidationError{Message: "No files to upload"}
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := mw.CreateFormFile(field, f.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(fw, f.Data); err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return c.send(req, out)
}

// absolute resolves a server-relative /uploads path against the host the API lives on.
func (c *Client) absolute(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimSuffix(c.baseURL, "/api") + u
}

// IsConnectError reports whether err means the server could not be reached.
func IsConnectError(err error) bool {
	return errors.Is(err, ErrCannotConnect)
}
