package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/accreditation-service/internal/middleware"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// AuthHandlers serves the staff authentication surface.
type AuthHandlers struct {
	auth *services.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(auth *services.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// ChangePassword handles POST /api/v1/auth/password
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, req, clientMeta(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

// SetupTwoFactor handles POST /api/v1/auth/2fa/setup
func (h *AuthHandlers) SetupTwoFactor(c *gin.Context) {
	user := middleware.CurrentUser(c)
	resp, err := h.auth.SetupTwoFactor(c.Request.Context(), user.ID, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EnableTwoFactor handles POST /api/v1/auth/2fa/enable
func (h *AuthHandlers) EnableTwoFactor(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.auth.EnableTwoFactor(c.Request.Context(), user.ID, req.Code, clientMeta(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "two-factor enabled"})
}
