package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// RegisterRequest is the self-service registration payload.
type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

// RegisterResponse reports the outcome of a self-service registration.
type RegisterResponse struct {
	UserID               string `json:"userId"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	Message              string `json:"message,omitempty"`
}

// CreateUserRequest is the payload forwarded on behalf of a fresh signup.
type CreateUserRequest struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// CreateUserPayload echoes the effective values used for the profile call,
// after normalization and role enforcement.
type CreateUserPayload struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

// RPCResult carries the raw outcome of the profile stored procedure.
type RPCResult struct {
	Data  map[string]any `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

// CreateUserResponse is the forwarding endpoint outcome envelope.
type CreateUserResponse struct {
	Success bool              `json:"success"`
	Payload CreateUserPayload `json:"payload"`
	RPC     RPCResult         `json:"rpc"`
}

// ReceivedFields flags which required fields were present on a rejected
// create-user payload.
type ReceivedFields struct {
	UserID   bool `json:"userId"`
	FullName bool `json:"fullName"`
	Document bool `json:"document"`
	Email    bool `json:"email"`
}

// MissingFieldsResponse is returned when a create-user payload is incomplete.
type MissingFieldsResponse struct {
	Error    string         `json:"error"`
	Received ReceivedFields `json:"received"`
}

// AdminCreateUserRequest is the privileged account-creation payload.
type AdminCreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// AdminCreateUserResponse reports a privileged creation outcome.
type AdminCreateUserResponse struct {
	Success bool      `json:"success"`
	UserID  string    `json:"userId"`
	RPC     RPCResult `json:"rpc"`
}

// SessionRequest carries a platform access token on auth-state changes.
type SessionRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
}

// SessionResponse is the authenticated state derived from the token.
type SessionResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"rol"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// TableResponse returns the current projection of one mirrored table.
type TableResponse struct {
	Table string           `json:"table"`
	Count int              `json:"count"`
	Rows  []map[string]any `json:"rows"`
}

// HealthResponse describes liveness status.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse aggregates dependency checks.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
