package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/port"
)

// Forwarder posts provisioning payloads to the privileged forwarding server,
// which holds the service-role key and performs the profile RPC server-side.
type Forwarder struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewForwarder builds a client for the configured create-user endpoint.
func NewForwarder(endpoint string, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// WithHTTPClient overrides the transport, primarily for testing.
func (f *Forwarder) WithHTTPClient(client *http.Client) *Forwarder {
	if client != nil {
		f.httpClient = client
	}
	return f
}

type forwardRequest struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

type forwardResponse struct {
	Success bool `json:"success"`
	Error   any  `json:"error"`
	RPC     *struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"rpc"`
}

// ForwardCreateUser sends the full provisioning payload to the forwarding
// server. Non-success statuses and JSON error payloads both surface as
// errors, preferring the server's own message.
func (f *Forwarder) ForwardCreateUser(ctx context.Context, params port.MemberRPCParams) error {
	body, err := json.Marshal(forwardRequest{
		UserID:   params.UserID,
		FullName: params.FullName,
		Document: params.Document,
		Email:    params.Email,
		Phone:    params.Phone,
		Role:     string(params.Role),
	})
	if err != nil {
		return fmt.Errorf("encode forward request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forward create-user: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read forward response: %w", err)
	}

	var decoded forwardResponse
	_ = json.Unmarshal(payload, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !decoded.Success {
		message := forwardErrorMessage(decoded)
		if message == "" {
			message = fmt.Sprintf("create-user endpoint returned status %d", resp.StatusCode)
		}
		f.logger.Warn("forwarding server rejected provisioning",
			zap.Int("status", resp.StatusCode),
			zap.String("user_id", params.UserID),
		)
		return &Error{StatusCode: resp.StatusCode, Message: message}
	}

	return nil
}

func forwardErrorMessage(resp forwardResponse) string {
	if resp.RPC != nil && resp.RPC.Error != nil && resp.RPC.Error.Message != "" {
		return resp.RPC.Error.Message
	}
	switch v := resp.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}

var _ port.ProfileForwarder = (*Forwarder)(nil)
