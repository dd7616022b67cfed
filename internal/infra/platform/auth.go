package platform

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/logger"
)

// signUpRequest is the self-service signup payload. Profile fields ride along
// as user metadata so the platform trigger can build the profile row.
type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data"`
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	// Metadata field name differs between the signup and admin endpoints.
	UserMetadata map[string]any `json:"user_metadata"`
	RawMetadata  map[string]any `json:"raw_user_meta_data"`
}

type signUpResponse struct {
	User    *authUser `json:"user"`
	Session *struct {
		AccessToken string `json:"access_token"`
	} `json:"session"`
	// Older platform versions return the user fields at the top level when no
	// session is issued.
	ID string `json:"id"`
}

// SignUp creates an identity record via self-service signup.
func (c *Client) SignUp(ctx context.Context, params port.SignUpParams) (port.SignUpResult, error) {
	body := signUpRequest{
		Email:    params.Email,
		Password: params.Password,
		Data: map[string]any{
			"documento": params.Document,
			"nombre":    params.FullName,
			"rol":       params.Role,
		},
	}
	if params.Phone != "" {
		body.Data["telefono"] = params.Phone
	} else {
		body.Data["telefono"] = nil
	}

	var resp signUpResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", c.anonKey, body, &resp); err != nil {
		return port.SignUpResult{}, err
	}

	result := port.SignUpResult{}
	switch {
	case resp.User != nil:
		result.UserID = resp.User.ID
	case resp.ID != "":
		result.UserID = resp.ID
	}
	if resp.Session != nil && resp.Session.AccessToken != "" {
		result.AccessToken = resp.Session.AccessToken
		result.HasSession = true
	}

	c.logger.Info("identity signup completed",
		zap.String("user_id", result.UserID),
		zap.String("email", logger.MaskEmail(params.Email)),
		zap.Bool("has_session", result.HasSession),
	)

	return result, nil
}

type adminCreateRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	Phone        *string        `json:"phone"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// AdminCreateUser creates an identity record through the privileged admin
// API. The account is confirmed immediately; no confirmation step applies.
func (c *Client) AdminCreateUser(ctx context.Context, params port.AdminCreateParams) (string, error) {
	var phone *string
	if params.Phone != "" {
		phone = &params.Phone
	}

	body := adminCreateRequest{
		Email:        params.Email,
		Password:     params.Password,
		Phone:        phone,
		EmailConfirm: true,
		UserMetadata: map[string]any{
			"full_name": params.FullName,
			"document":  params.Document,
			"role":      params.Role,
		},
	}

	var user authUser
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceRoleKey, body, &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("failed to create auth user")
	}

	c.logger.Info("identity created via admin API",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(params.Email)),
	)

	return user.ID, nil
}

// LookupPhone fetches the phone stored on the identity record, falling back
// to the signup metadata. Covers email signups where the client put the phone
// in metadata but the top-level field stayed empty.
func (c *Client) LookupPhone(ctx context.Context, userID string) (string, error) {
	var user authUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users/"+userID, c.serviceRoleKey, nil, &user); err != nil {
		return "", err
	}

	if user.Phone != "" {
		return user.Phone, nil
	}
	for _, metadata := range []map[string]any{user.UserMetadata, user.RawMetadata} {
		if metadata == nil {
			continue
		}
		for _, key := range []string{"phone", "telefono"} {
			if v, ok := metadata[key].(string); ok && v != "" {
				return v, nil
			}
		}
	}

	return "", nil
}

var _ port.IdentityProvider = (*Client)(nil)
