package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

// SessionHandler exposes the process-wide session context over HTTP. The
// client posts its platform access token on every auth-state change; the rest
// of the process reads the resulting session instead of parsing tokens.
type SessionHandler struct {
	sessions *usecase.SessionContext
}

// NewSessionHandler constructs the session endpoints.
func NewSessionHandler(sessions *usecase.SessionContext) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Update godoc
// @Summary Update the session from a platform access token
// @Tags Session
// @Accept json
// @Produce json
// @Param request body SessionRequest true "Access token"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/session [post]
func (h *SessionHandler) Update(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "accessToken is required"))
		return
	}

	session, err := h.sessions.UpdateFromToken(req.AccessToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid access token"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to update session"))
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// Current godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} SessionResponse
// @Success 204 "signed out"
// @Router /api/v1/session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	session, ok := h.sessions.Current()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// Clear godoc
// @Summary Sign the process out
// @Tags Session
// @Success 204 "signed out"
// @Router /api/v1/session [delete]
func (h *SessionHandler) Clear(c *gin.Context) {
	h.sessions.Clear()
	c.Status(http.StatusNoContent)
}

func sessionResponse(session usecase.Session) SessionResponse {
	return SessionResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		Role:      string(session.Role),
		ExpiresAt: session.ExpiresAt,
	}
}
