package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/infra/security"
	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

// RegistrationHandler exposes the self-service member registration endpoint.
type RegistrationHandler struct {
	provisioning *usecase.ProvisioningService
}

func NewRegistrationHandler(provisioning *usecase.ProvisioningService) *RegistrationHandler {
	return &RegistrationHandler{provisioning: provisioning}
}

// Register godoc
// @Summary Register a new club member
// @Description Creates a login identity and its member profile in one flow.
// @Tags Registration
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/members/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.provisioning.Provision(c.Request.Context(), domain.ProvisioningRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Document: req.Document,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respondRegistrationError(c, err)
		return
	}

	resp := RegisterResponse{
		UserID:               result.UserID,
		RequiresConfirmation: result.RequiresConfirmation,
	}
	if result.RequiresConfirmation {
		resp.Message = "Revisá tu correo para confirmar la cuenta."
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *RegistrationHandler) respondRegistrationError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var passwordErr *security.PasswordValidationError
	switch {
	case errors.Is(err, usecase.ErrDocumentRequired),
		errors.Is(err, usecase.ErrDocumentTooShort),
		errors.As(err, &passwordErr):
		status = http.StatusBadRequest
	}

	c.JSON(status, NewErrorResponse(c, usecase.FriendlyMessage(err)))
}
