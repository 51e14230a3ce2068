package handlers

import (
	"net/http"

	"example.com/backstage/services/inventory/api/apierr"
	"example.com/backstage/services/inventory/api/middleware"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles account requests
type AuthHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(svc service.Service, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		log:     log,
	}
}

// PasswordResetRequest is the body of a reset request
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// Register creates an account
func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), in, requestMeta(c))
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var in service.LoginInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), in, requestMeta(c))
	if err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RequestPasswordReset always answers 200 so account existence is not revealed
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email, requestMeta(c)); err != nil {
		h.log.WithError(err).Error("Password reset request failed")
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "If an account exists for that email, a reset link has been sent",
	})
}

// ConfirmPasswordReset sets a new password using a reset token
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var in service.ResetConfirmInput
	if !bindJSON(c, h.log, &in) {
		return
	}

	if err := h.service.ConfirmPasswordReset(c.Request.Context(), in, requestMeta(c)); err != nil {
		apierr.Write(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your password has been reset"})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierr.Write(c, h.log, apierr.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}
