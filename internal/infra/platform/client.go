package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/infra/config"
)

// Client talks to the hosted database platform over HTTP: the auth API for
// identity records and the REST endpoint for stored-procedure calls. Two key
// levels exist; the anon key for self-service calls and the service-role key
// for privileged ones.
type Client struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewClient constructs a platform client from configuration.
func NewClient(cfg config.PlatformSettings, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("platform url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
		httpClient:     http.DefaultClient,
		logger:         logger,
	}, nil
}

// WithHTTPClient overrides the transport, primarily for testing.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// Error is a failure reported by the platform. The message is the platform's
// own human-readable string and is surfaced verbatim to callers.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (c *Client) do(ctx context.Context, method, path, apiKey string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build platform request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("apikey", apiKey)
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read platform response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(payload, resp.StatusCode),
		}
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode platform response: %w", err)
		}
	}

	return nil
}

// The platform is not consistent about its error envelope; try the known
// field names before falling back to the raw body.
func extractErrorMessage(payload []byte, status int) string {
	var envelope struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		ErrorField       string `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		for _, candidate := range []string{envelope.Msg, envelope.Message, envelope.ErrorDescription, envelope.ErrorField} {
			if candidate != "" {
				return candidate
			}
		}
	}
	if len(payload) > 0 {
		return string(payload)
	}
	return fmt.Sprintf("platform request failed with status %d", status)
}
