package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
)

// Header names understood by the backend.
const (
	HeaderDeviceID    = "X-Device-Id"
	HeaderInternalKey = "X-Internal-Key"
)

const maxResponseBytes = 64 << 20

// Options configures the OCR backend client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the versioned OCR backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000/api/v1"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     infra.OrDiscard(opts.Logger),
	}
}

// BaseURL returns the configured API base path.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, id domain.Identity) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	applyIdentity(req, id)
	return req, nil
}

func applyIdentity(req *http.Request, id domain.Identity) {
	if id.DeviceID != "" {
		req.Header.Set(HeaderDeviceID, string(id.DeviceID))
	}
	if id.Token != "" {
		req.Header.Set("Authorization", "Bearer "+id.Token)
	}
	if id.InternalKey != "" {
		req.Header.Set(HeaderInternalKey, id.InternalKey)
	}
}

// do executes req and returns the raw body of a 2xx response. Other statuses
// become *APIError, transport failures *NetworkError.
func (c *Client) do(req *http.Request, op string) ([]byte, http.Header, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Msg("backend: request failed")
		return nil, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, &NetworkError{Op: op + ": read response", Err: err}
	}
	c.logger.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend: call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.Header, decodeAPIError(resp.StatusCode, raw)
	}
	return raw, resp.Header, nil
}

func (c *Client) getJSON(ctx context.Context, path, op string, id domain.Identity, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, id)
	if err != nil {
		return err
	}
	raw, _, err := c.do(req, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", op, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path, op string, id domain.Identity, payload any) ([]byte, http.Header, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("backend: encode %s: %w", op, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body), id)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op)
}
