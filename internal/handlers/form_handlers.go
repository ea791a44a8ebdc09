package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/middleware"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// FormHandlers serves the external submission surface. Everything here is
// reached either through the credential gate or a form-scoped session.
type FormHandlers struct {
	links *services.FormLinkService
	forms *services.FormService
}

// NewFormHandlers creates new form handlers
func NewFormHandlers(links *services.FormLinkService, forms *services.FormService) *FormHandlers {
	return &FormHandlers{links: links, forms: forms}
}

// Authenticate handles POST /api/v1/external/auth
func (h *FormHandlers) Authenticate(c *gin.Context) {
	var req models.FormAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.links.Authenticate(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMyForm handles GET /api/v1/external/form
func (h *FormHandlers) GetMyForm(c *gin.Context) {
	formID := sessionFormID(c)

	summary, err := h.forms.ExternalView(c.Request.Context(), formID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Submit handles POST /api/v1/external/form/submit
func (h *FormHandlers) Submit(c *gin.Context) {
	var req models.SubmitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	formID := sessionFormID(c)
	form, err := h.forms.Submit(c.Request.Context(), formID, req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "form submitted",
		"status":       form.Status,
		"submitted_at": form.SubmittedAt,
	})
}

// UploadAttachment handles POST /api/v1/external/form/attachments
func (h *FormHandlers) UploadAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	attachmentType := c.PostForm("attachment_type")
	if attachmentType == "" {
		attachmentType = models.AttachmentSoftwareProof
	}

	src, err := file.Open()
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	defer src.Close()

	formID := sessionFormID(c)
	att, err := h.forms.SaveAttachment(
		c.Request.Context(),
		formID,
		file.Filename,
		file.Header.Get("Content-Type"),
		attachmentType,
		file.Size,
		src,
		clientMeta(c),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

// sessionFormID reads the form bound to the session by the middleware.
func sessionFormID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(middleware.ContextFormID)
	id, _ := v.(uuid.UUID)
	return id
}
