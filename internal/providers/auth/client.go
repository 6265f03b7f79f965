package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"ocrweb/internal/domain"
	"ocrweb/internal/infra"
)

const minPhoneDigits = 11

// Options configures the identity provider client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the phone/SMS identity provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// LoginResult is the bearer token and profile issued on a successful login.
type LoginResult struct {
	AccessToken string             `json:"access_token"`
	User        domain.UserAccount `json:"user"`
}

// Error is a rejection reported by the identity provider, such as an invalid
// verification code.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: status %d: %s", e.StatusCode, e.Message)
}

func (e *Error) UserMessage() string { return e.Message }

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.densematrix.ai"
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: infra.OrDiscard(opts.Logger)}
}

// ValidatePhone rejects numbers with fewer than eleven digits.
func ValidatePhone(phone string) error {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return domain.ErrInvalidPhone
	}
	return nil
}

// SendCode asks the provider to text a verification code to phone.
func (c *Client) SendCode(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	_, err := c.post(ctx, "/api/sms/send-code", map[string]string{"phone": phone})
	return err
}

// Login exchanges phone and verification code for a bearer token.
func (c *Client) Login(ctx context.Context, phone, code string) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return nil, errors.New("auth: phone and verification code are required")
	}
	raw, err := c.post(ctx, "/api/auth/login", map[string]string{
		"phone":             phone,
		"verification_code": code,
	})
	if err != nil {
		return nil, err
	}
	var result LoginResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("auth: decode login: %w", err)
	}
	if result.AccessToken == "" {
		return nil, errors.New("auth: login response missing access token")
	}
	c.logger.Info().Str("user_id", result.User.ID).Msg("auth: logged in")
	return &result, nil
}

// Profile returns the account behind token. A rejected token yields *Error.
func (c *Client) Profile(ctx context.Context, token string) (*domain.UserAccount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var user domain.UserAccount
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("auth: decode profile: %w", err)
	}
	return &user, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("auth: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", req.URL.Path).Msg("auth: request rejected")
		return nil, &Error{StatusCode: resp.StatusCode, Message: detailMessage(raw)}
	}
	return raw, nil
}

func detailMessage(raw []byte) string {
	var envelope struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if s, ok := envelope.Detail.(string); ok && s != "" {
			return s
		}
		if m, ok := envelope.Detail.(map[string]any); ok {
			for _, field := range []string{"error", "message"} {
				if s, ok := m[field].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return domain.DefaultErrorMessage
}
