package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/middleware"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// AdminHandlers serves staff account administration and form link issuance.
type AdminHandlers struct {
	auth  *services.AuthService
	links *services.FormLinkService
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(auth *services.AuthService, links *services.FormLinkService) *AdminHandlers {
	return &AdminHandlers{auth: auth, links: links}
}

// CreateUser handles POST /api/v1/admin/users
func (h *AdminHandlers) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.auth.CreateUser(c.Request.Context(), middleware.CurrentUser(c), req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser handles PATCH /api/v1/admin/users/:id
func (h *AdminHandlers) UpdateUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.auth.UpdateUser(c.Request.Context(), middleware.CurrentUser(c), userID, req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser handles GET /api/v1/admin/users/:id
func (h *AdminHandlers) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, total, err := h.auth.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// IssueLink handles POST /api/v1/forms/links
func (h *AdminHandlers) IssueLink(c *gin.Context) {
	resp, err := h.links.Issue(c.Request.Context(), middleware.CurrentUser(c), clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
