package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// AuditHandlers serves read-only queries over the audit ledger.
type AuditHandlers struct {
	audit *services.AuditService
}

// NewAuditHandlers creates new audit handlers
func NewAuditHandlers(audit *services.AuditService) *AuditHandlers {
	return &AuditHandlers{audit: audit}
}

// List handles GET /api/v1/audit
func (h *AuditHandlers) List(c *gin.Context) {
	filter := models.AuditLogFilter{
		Action:       models.AuditAction(c.Query("action")),
		ResourceType: models.AuditResource(c.Query("resource_type")),
		ResourceID:   c.Query("resource_id"),
		RiskLevel:    models.RiskLevel(c.Query("risk_level")),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	if actorID := c.Query("actor_id"); actorID != "" {
		id, err := uuid.Parse(actorID)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		filter.ActorID = &id
	}
	if success := c.Query("success"); success != "" {
		v, err := strconv.ParseBool(success)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		filter.Success = &v
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		filter.FromDate = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		filter.ToDate = &t
	}

	logs, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetByID handles GET /api/v1/audit/:id
func (h *AuditHandlers) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	log, err := h.audit.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// ResourceHistory handles GET /api/v1/audit/resource/:type/:id
func (h *AuditHandlers) ResourceHistory(c *gin.Context) {
	resourceType := models.AuditResource(c.Param("type"))
	resourceID := c.Param("id")

	logs, err := h.audit.ResourceHistory(c.Request.Context(), resourceType, resourceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
