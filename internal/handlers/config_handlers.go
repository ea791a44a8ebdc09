package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/accreditation-service/internal/middleware"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// ConfigHandlers serves system configuration management.
type ConfigHandlers struct {
	configs *services.ConfigService
}

// NewConfigHandlers creates new config handlers
func NewConfigHandlers(configs *services.ConfigService) *ConfigHandlers {
	return &ConfigHandlers{configs: configs}
}

// List handles GET /api/v1/config
func (h *ConfigHandlers) List(c *gin.Context) {
	cfgs, err := h.configs.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configurations": cfgs})
}

// Get handles GET /api/v1/config/:key
func (h *ConfigHandlers) Get(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Set handles PUT /api/v1/config/:key
func (h *ConfigHandlers) Set(c *gin.Context) {
	var req models.SetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	cfg, err := h.configs.Set(c.Request.Context(), middleware.CurrentUser(c), c.Param("key"), req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
