package services

import (
	"context"
	"errors"
	"io"
	"regexp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/tesseract-hub/accreditation-service/internal/events"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
	"github.com/tesseract-hub/accreditation-service/internal/storage"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FormService handles the external submission surface and the staff read
// views of accreditation forms.
type FormService struct {
	forms     repository.FormRepositoryInterface
	approvals repository.ApprovalRepositoryInterface
	audit     *AuditService
	publisher *events.Publisher
	store     *storage.LocalStore
	logger    *logrus.Logger
}

// NewFormService creates a new form service
func NewFormService(
	forms repository.FormRepositoryInterface,
	approvals repository.ApprovalRepositoryInterface,
	audit *AuditService,
	publisher *events.Publisher,
	store *storage.LocalStore,
	logger *logrus.Logger,
) *FormService {
	return &FormService{
		forms:     forms,
		approvals: approvals,
		audit:     audit,
		publisher: publisher,
		store:     store,
		logger:    logger,
	}
}

// Submit validates the full questionnaire and transitions the form from
// draft to submitted. Validation reports every violation in one pass. The
// transition runs under a row lock; losing a race surfaces as a state error.
func (s *FormService) Submit(ctx context.Context, formID uuid.UUID, req models.SubmitFormRequest, meta models.ClientMeta) (*models.AccreditationForm, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("form")
		}
		return nil, err
	}
	if !form.Editable() || !form.IsActive {
		return nil, NewInvalidStateError("form is not open for submission")
	}

	if verr := validateSubmission(req, form.Attachments); verr.HasErrors() {
		s.audit.Record(ctx, AuditEntry{
			Action:       models.ActionFormSubmitFailed,
			ResourceType: models.ResourceForm,
			ResourceID:   form.ID.String(),
			Description:  "submission rejected by validation",
			Success:      false,
			ErrorMessage: verr.Error(),
			RiskLevel:    models.RiskLow,
			Meta:         meta,
		})
		return nil, verr
	}

	applyPayload(form, req)

	if err := s.forms.Submit(ctx, form); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			s.audit.Record(ctx, AuditEntry{
				Action:       models.ActionFormSubmitFailed,
				ResourceType: models.ResourceForm,
				ResourceID:   form.ID.String(),
				Description:  "submission lost a concurrent transition",
				Success:      false,
				ErrorMessage: err.Error(),
				RiskLevel:    models.RiskMedium,
				Meta:         meta,
			})
			return nil, NewInvalidStateError("form is not open for submission")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("form")
		}
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionFormSubmitted,
		ResourceType: models.ResourceForm,
		ResourceID:   form.ID.String(),
		Description:  "accreditation form submitted",
		Success:      true,
		RiskLevel:    models.RiskLow,
		NewValues:    map[string]interface{}{"company_name": form.CompanyName, "status": form.Status},
		Meta:         meta,
	})
	s.publisher.PublishFormEvent(events.SubjectFormSubmitted, events.FormEvent{
		FormID:      form.ID,
		Status:      form.Status,
		CompanyName: form.CompanyName,
	})

	return form, nil
}

// GetForm retrieves a form for staff views, attachments included.
func (s *FormService) GetForm(ctx context.Context, formID uuid.UUID) (*models.AccreditationForm, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("form")
		}
		return nil, err
	}
	return form, nil
}

// ExternalView returns the external party's sanitized view of their form,
// including reviewer comments after a revision request.
func (s *FormService) ExternalView(ctx context.Context, formID uuid.UUID) (*models.FormSummary, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("form")
		}
		return nil, err
	}

	summary := summarize(form)
	if approval, err := s.approvals.GetCurrent(ctx, form.ID); err == nil {
		summary.Comments = approval.Comments
	}
	return summary, nil
}

// ListForms retrieves forms for the staff dashboard with filtering.
func (s *FormService) ListForms(ctx context.Context, filter models.FormFilter) ([]models.AccreditationForm, int64, error) {
	return s.forms.List(ctx, filter)
}

// DashboardStats aggregates workflow counts for the staff dashboard.
func (s *FormService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	counts, err := s.forms.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	recent, _, err := s.forms.List(ctx, models.FormFilter{Limit: 10})
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		TotalForms:       total,
		ByStatus:         counts,
		PendingApprovals: counts[models.FormStatusSubmitted] + counts[models.FormStatusUnderReview],
		RecentForms:      recent,
	}, nil
}

// SaveAttachment stores an uploaded file for a draft form.
func (s *FormService) SaveAttachment(ctx context.Context, formID uuid.UUID, originalName, mimeType, attachmentType string, size int64, src io.Reader, meta models.ClientMeta) (*models.FormAttachment, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("form")
		}
		return nil, err
	}
	if !form.Editable() || !form.IsActive {
		return nil, NewInvalidStateError("form is not open for uploads")
	}
	if err := s.store.Allowed(mimeType, size); err != nil {
		verr := NewValidationError()
		verr.Add("file", err.Error())
		return nil, verr
	}

	filename, path, written, err := s.store.Save(form.ID, originalName, src)
	if err != nil {
		return nil, err
	}

	att := &models.FormAttachment{
		FormID:           form.ID,
		Filename:         filename,
		OriginalFilename: originalName,
		FilePath:         path,
		FileSize:         written,
		MimeType:         mimeType,
		AttachmentType:   attachmentType,
	}
	if err := s.forms.CreateAttachment(ctx, att); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionCreate,
		ResourceType: models.ResourceForm,
		ResourceID:   form.ID.String(),
		Description:  "attachment uploaded: " + originalName,
		Success:      true,
		RiskLevel:    models.RiskLow,
		Meta:         meta,
	})
	return att, nil
}

// OpenAttachment returns a reader over a stored attachment for staff
// download.
func (s *FormService) OpenAttachment(ctx context.Context, formID, attachmentID uuid.UUID) (*models.FormAttachment, io.ReadCloser, error) {
	atts, err := s.forms.ListAttachments(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	for i := range atts {
		if atts[i].ID == attachmentID {
			rc, err := s.store.Open(atts[i].FilePath)
			if err != nil {
				return nil, nil, err
			}
			return &atts[i], rc, nil
		}
	}
	return nil, nil, NewNotFoundError("attachment")
}

// validateSubmission checks the full questionnaire and collects every
// violation instead of stopping at the first. The signed copy of the form is
// uploaded separately, so the check runs against the stored attachments.
func validateSubmission(req models.SubmitFormRequest, attachments []models.FormAttachment) *ValidationError {
	verr := NewValidationError()

	if req.CompanyName == "" {
		verr.Add("company_name", "required")
	}
	if req.ContactPerson == "" {
		verr.Add("contact_person", "required")
	}
	if req.ContactNumber == "" {
		verr.Add("contact_number", "required")
	}
	if req.ContactEmail == "" {
		verr.Add("contact_email", "required")
	} else if !emailPattern.MatchString(req.ContactEmail) {
		verr.Add("contact_email", "invalid email address")
	}
	if req.BusinessAddress == "" {
		verr.Add("business_address", "required")
	}
	if req.BusinessEmail != "" && !emailPattern.MatchString(req.BusinessEmail) {
		verr.Add("business_email", "invalid email address")
	}

	if len(req.ServicesOffered) == 0 && req.ServicesOther == "" {
		verr.Add("services_offered", "at least one service is required")
	}
	for _, code := range req.ServicesOffered {
		if !code.Valid() {
			verr.Add("services_offered", "unknown service code: "+string(code))
			break
		}
	}

	for field, count := range map[string]int{
		"audio_engineers_count":  req.AudioEngineersCount,
		"video_editors_count":    req.VideoEditorsCount,
		"colorists_count":        req.ColoristsCount,
		"graphics_artists_count": req.GraphicsArtistsCount,
		"animators_count":        req.AnimatorsCount,
	} {
		if count < 0 {
			verr.Add(field, "must not be negative")
		}
	}

	if req.TotalWorkstations < 1 {
		verr.Add("total_workstations", "must be at least 1")
	}
	if n := len(req.WorkstationDetails); n > 0 && req.TotalWorkstations != n {
		verr.Add("total_workstations", "does not match number of workstation entries")
	}
	switch req.WorkstationsShared {
	case "", models.SharedYes, models.SharedNo, models.SharedMixed:
	default:
		verr.Add("workstations_shared", "must be yes, no, or mixed")
	}

	if req.AccomplishedBy == "" {
		verr.Add("accomplished_by", "required")
	}
	if req.Designation == "" {
		verr.Add("designation", "required")
	}

	hasSignature := false
	for _, att := range attachments {
		if att.AttachmentType == models.AttachmentSignature {
			hasSignature = true
			break
		}
	}
	if !hasSignature {
		verr.Add("signature", "a signed copy of the form must be attached")
	}

	return verr
}

// applyPayload copies the validated questionnaire onto the form row.
func applyPayload(form *models.AccreditationForm, req models.SubmitFormRequest) {
	form.CompanyName = req.CompanyName
	form.ContactPerson = req.ContactPerson
	form.ContactNumber = req.ContactNumber
	form.ContactEmail = req.ContactEmail
	form.BusinessAddress = req.BusinessAddress
	form.BusinessEmail = req.BusinessEmail

	form.ServicesOffered = datatypes.NewJSONType(req.ServicesOffered)
	form.ServicesOther = req.ServicesOther
	form.FacilityFormats = datatypes.NewJSONType(req.FacilityFormats)
	form.AudioSoftware = datatypes.NewJSONType(req.AudioSoftware)
	form.EditingSoftware = datatypes.NewJSONType(req.EditingSoftware)
	form.GraphicsSoftware = datatypes.NewJSONType(req.GraphicsSoftware)
	form.WorkstationDetails = datatypes.NewJSONType(req.WorkstationDetails)

	form.AudioEngineersCount = req.AudioEngineersCount
	form.VideoEditorsCount = req.VideoEditorsCount
	form.ColoristsCount = req.ColoristsCount
	form.GraphicsArtistsCount = req.GraphicsArtistsCount
	form.AnimatorsCount = req.AnimatorsCount

	form.TotalWorkstations = req.TotalWorkstations
	form.WorkstationsShared = req.WorkstationsShared

	form.AccomplishedBy = req.AccomplishedBy
	form.Designation = req.Designation
}
