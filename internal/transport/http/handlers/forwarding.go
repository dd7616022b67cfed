package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

const adminSecretHeader = "x-admin-secret"

// ForwardingHandler exposes the privileged provisioning endpoints consumed by
// trusted frontends. Response shapes are part of the wire contract with
// existing clients and must not change.
type ForwardingHandler struct {
	forwarding *usecase.ForwardingService
}

func NewForwardingHandler(forwarding *usecase.ForwardingService) *ForwardingHandler {
	return &ForwardingHandler{forwarding: forwarding}
}

// CreateUser godoc
// @Summary Create the member profile for an existing identity
// @Description Runs the privileged profile procedure for an identity created by the client. Role escalation requires the shared admin secret header.
// @Tags Forwarding
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "Create user request"
// @Success 200 {object} CreateUserResponse
// @Failure 400 {object} MissingFieldsResponse
// @Failure 500 {object} CreateUserResponse
// @Router /create-user [post]
func (h *ForwardingHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MissingFieldsResponse{
			Error: "Missing required fields",
		})
		return
	}

	authorized := h.forwarding.Authorized(c.GetHeader(adminSecretHeader))

	params := usecase.ForwardedCreateParams{
		UserID:   req.UserID,
		FullName: req.FullName,
		Document: req.Document,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     domain.Role(strings.TrimSpace(req.Role)),
	}

	data, err := h.forwarding.CreateUser(c.Request.Context(), authorized, params)
	if errors.Is(err, usecase.ErrMissingFields) {
		c.JSON(http.StatusBadRequest, MissingFieldsResponse{
			Error: "Missing required fields",
			Received: ReceivedFields{
				UserID:   strings.TrimSpace(req.UserID) != "",
				FullName: strings.TrimSpace(req.FullName) != "",
				Document: strings.TrimSpace(req.Document) != "",
				Email:    strings.TrimSpace(req.Email) != "",
			},
		})
		return
	}

	payload := h.effectivePayload(req, authorized)

	if err != nil {
		c.JSON(http.StatusInternalServerError, CreateUserResponse{
			Success: false,
			Payload: payload,
			RPC:     RPCResult{Error: usecase.FriendlyMessage(err)},
		})
		return
	}

	c.JSON(http.StatusOK, CreateUserResponse{
		Success: true,
		Payload: payload,
		RPC:     RPCResult{Data: data},
	})
}

// AdminCreateUser godoc
// @Summary Create a member account with an explicit role
// @Description Creates the identity with confirmation pre-applied and runs the profile procedure with the requested role. Requires the shared admin secret header.
// @Tags Forwarding
// @Accept json
// @Produce json
// @Param request body AdminCreateUserRequest true "Admin create request"
// @Success 200 {object} AdminCreateUserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/create-user [post]
func (h *ForwardingHandler) AdminCreateUser(c *gin.Context) {
	var req AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields"})
		return
	}

	result, err := h.forwarding.AdminCreateUser(c.Request.Context(), c.GetHeader(adminSecretHeader), usecase.AdminCreateRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Document: req.Document,
		Phone:    req.Phone,
		Role:     domain.Role(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		case errors.Is(err, usecase.ErrMissingFields):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: usecase.FriendlyMessage(err)})
		}
		return
	}

	c.JSON(http.StatusOK, AdminCreateUserResponse{
		Success: true,
		UserID:  result.UserID,
		RPC:     RPCResult{Data: result.RPCData},
	})
}

func (h *ForwardingHandler) effectivePayload(req CreateUserRequest, authorized bool) CreateUserPayload {
	role := domain.DefaultRole
	if requested := domain.Role(strings.TrimSpace(req.Role)); authorized && requested != "" {
		role = requested
	}

	return CreateUserPayload{
		UserID:   strings.TrimSpace(req.UserID),
		FullName: strings.TrimSpace(req.FullName),
		Document: strings.TrimSpace(req.Document),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     string(role),
	}
}
