package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/export"
	"github.com/tesseract-hub/accreditation-service/internal/middleware"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// ReviewHandlers serves the staff review surface: form lists, decisions,
// history, dashboard, and certificate export.
type ReviewHandlers struct {
	forms     *services.FormService
	approvals *services.ApprovalService
	auth      *services.AuthService
	audit     *services.AuditService
}

// NewReviewHandlers creates new review handlers
func NewReviewHandlers(forms *services.FormService, approvals *services.ApprovalService, auth *services.AuthService, audit *services.AuditService) *ReviewHandlers {
	return &ReviewHandlers{forms: forms, approvals: approvals, auth: auth, audit: audit}
}

// ListForms handles GET /api/v1/forms
func (h *ReviewHandlers) ListForms(c *gin.Context) {
	filter := models.FormFilter{
		Status: models.FormStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	if createdBy := c.Query("created_by"); createdBy != "" {
		id, err := uuid.Parse(createdBy)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		filter.CreatedBy = &id
	}

	forms, total, err := h.forms.ListForms(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"forms":  forms,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetForm handles GET /api/v1/forms/:id
func (h *ReviewHandlers) GetForm(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	form, err := h.forms.GetForm(c.Request.Context(), formID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// BeginReview handles POST /api/v1/forms/:id/review
func (h *ReviewHandlers) BeginReview(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	approval, err := h.approvals.BeginReview(c.Request.Context(), middleware.CurrentUser(c), formID, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, approval)
}

// Decide handles POST /api/v1/forms/:id/decision
func (h *ReviewHandlers) Decide(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	var req models.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.approvals.Decide(c.Request.Context(), middleware.CurrentUser(c), formID, req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History handles GET /api/v1/forms/:id/history
func (h *ReviewHandlers) History(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	history, err := h.approvals.History(c.Request.Context(), formID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Dashboard handles GET /api/v1/dashboard
func (h *ReviewHandlers) Dashboard(c *gin.Context) {
	stats, err := h.forms.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportCertificate handles GET /api/v1/forms/:id/certificate
func (h *ReviewHandlers) ExportCertificate(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	form, err := h.forms.GetForm(c.Request.Context(), formID)
	if err != nil {
		respondError(c, err)
		return
	}
	if form.Status != models.FormStatusApproved {
		respondError(c, services.NewInvalidStateError("certificate requires an approved form"))
		return
	}

	approverName := "Accreditation Board"
	if approval, err := h.approvals.Current(c.Request.Context(), formID); err == nil {
		if approver, err := h.auth.GetUser(c.Request.Context(), approval.ApproverID); err == nil {
			approverName = approver.FullName()
		}
	}

	cert, err := export.Certificate(form, approverName)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), services.AuditEntry{
		Action:       models.ActionExport,
		ResourceType: models.ResourceForm,
		ResourceID:   form.ID.String(),
		Description:  "certificate exported",
		Success:      true,
		RiskLevel:    models.RiskLow,
		Meta:         clientMeta(c),
	})

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=certificate-%s.txt", form.ID))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", cert)
}

// DownloadAttachment handles GET /api/v1/forms/:id/attachments/:attachmentId
func (h *ReviewHandlers) DownloadAttachment(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	attachmentID, err := uuid.Parse(c.Param("attachmentId"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	att, rc, err := h.forms.OpenAttachment(c.Request.Context(), formID, attachmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.OriginalFilename))
	c.Header("Content-Type", att.MimeType)
	io.Copy(c.Writer, rc)
}
