package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/accreditation-service/internal/events"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
)

// ApprovalService runs the review workflow: claiming a submission for
// review and applying decisions that keep the approval record and the form
// status synchronized.
type ApprovalService struct {
	approvals repository.ApprovalRepositoryInterface
	forms     repository.FormRepositoryInterface
	audit     *AuditService
	publisher *events.Publisher
	logger    *logrus.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	approvals repository.ApprovalRepositoryInterface,
	forms repository.FormRepositoryInterface,
	audit *AuditService,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *ApprovalService {
	return &ApprovalService{
		approvals: approvals,
		forms:     forms,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
	}
}

// BeginReview claims a submitted form for a reviewer and moves it to
// under_review. Approver role or above.
func (s *ApprovalService) BeginReview(ctx context.Context, actor *models.User, formID uuid.UUID, meta models.ClientMeta) (*models.Approval, error) {
	if !actor.CanAccess(models.RoleApprover) {
		s.auditUnauthorized(ctx, meta, formID, "begin review")
		return nil, NewAuthorizationError("approver role required")
	}

	approval, err := s.approvals.BeginReview(ctx, formID, actor.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFoundError("form")
		case errors.Is(err, repository.ErrStateConflict):
			return nil, NewInvalidStateError("form is not awaiting review")
		default:
			return nil, err
		}
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionReviewStarted,
		ResourceType: models.ResourceApproval,
		ResourceID:   formID.String(),
		Description:  "review started",
		Success:      true,
		RiskLevel:    models.RiskLow,
		Meta:         meta,
	})
	return approval, nil
}

// Decide applies one reviewer decision. Approver role or above. The
// approval record, the form status, and the history row commit atomically;
// of two concurrent deciders exactly one wins and the loser gets a state
// error with nothing changed.
func (s *ApprovalService) Decide(ctx context.Context, actor *models.User, formID uuid.UUID, req models.DecisionRequest, meta models.ClientMeta) (*models.DecisionResponse, error) {
	if !actor.CanAccess(models.RoleApprover) {
		s.auditUnauthorized(ctx, meta, formID, "decide")
		return nil, NewAuthorizationError("approver role required")
	}
	if !req.Action.Valid() {
		verr := NewValidationError()
		verr.Add("action", "must be approve, reject, or needs_revision")
		return nil, verr
	}
	if req.Action == models.ActionNeedsRevision && req.Comments == "" {
		verr := NewValidationError()
		verr.Add("comments", "required when requesting a revision")
		return nil, verr
	}

	upd := repository.DecisionUpdate{
		FormID:        formID,
		ApproverID:    actor.ID,
		Comments:      req.Comments,
		InternalNotes: req.InternalNotes,
	}
	var auditAction models.AuditAction
	var subject string

	switch req.Action {
	case models.ActionApprove:
		upd.ApprovalStatus = models.ApprovalApproved
		upd.FormStatus = models.FormStatusApproved
		upd.HistoryAction = models.HistoryApproved
		auditAction = models.ActionFormApproved
		subject = events.SubjectFormApproved
	case models.ActionReject:
		upd.ApprovalStatus = models.ApprovalRejected
		upd.FormStatus = models.FormStatusRejected
		upd.HistoryAction = models.HistoryRejected
		auditAction = models.ActionFormRejected
		subject = events.SubjectFormRejected
	case models.ActionNeedsRevision:
		upd.ApprovalStatus = models.ApprovalNeedsRevision
		upd.FormStatus = models.FormStatusDraft
		upd.HistoryAction = models.HistoryRevisionRequested
		upd.ReopenLink = true
		auditAction = models.ActionRevisionRequested
		subject = events.SubjectRevisionRequested
	}

	approval, previous, err := s.approvals.ApplyDecision(ctx, upd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFoundError("form")
		case errors.Is(err, repository.ErrStateConflict):
			s.audit.Record(ctx, AuditEntry{
				Action:       models.ActionDecisionFailed,
				ResourceType: models.ResourceApproval,
				ResourceID:   formID.String(),
				Description:  "decision rejected by form state",
				Success:      false,
				ErrorMessage: err.Error(),
				RiskLevel:    models.RiskMedium,
				Meta:         meta,
			})
			return nil, NewInvalidStateError("form is not in a decidable state")
		default:
			return nil, err
		}
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       auditAction,
		ResourceType: models.ResourceApproval,
		ResourceID:   formID.String(),
		Description:  "decision applied: " + string(req.Action),
		Success:      true,
		RiskLevel:    models.RiskMedium,
		OldValues:    map[string]interface{}{"form_status": previous},
		NewValues:    map[string]interface{}{"form_status": upd.FormStatus, "approval_status": approval.Status},
		Meta:         meta,
	})

	event := events.FormEvent{
		FormID:   formID,
		Status:   upd.FormStatus,
		Comments: req.Comments,
	}
	if form, err := s.forms.GetByID(ctx, formID); err == nil {
		event.CompanyName = form.CompanyName
	}
	s.publisher.PublishFormEvent(subject, event)

	return &models.DecisionResponse{
		Approval:   approval,
		FormStatus: upd.FormStatus,
	}, nil
}

// Current retrieves the current approval for a form.
func (s *ApprovalService) Current(ctx context.Context, formID uuid.UUID) (*models.Approval, error) {
	approval, err := s.approvals.GetCurrent(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("approval")
		}
		return nil, err
	}
	return approval, nil
}

// History retrieves the decision trail for a form, oldest first.
func (s *ApprovalService) History(ctx context.Context, formID uuid.UUID) ([]models.ApprovalHistory, error) {
	return s.approvals.History(ctx, formID)
}

func (s *ApprovalService) auditUnauthorized(ctx context.Context, meta models.ClientMeta, formID uuid.UUID, attempted string) {
	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionUnauthorized,
		ResourceType: models.ResourceApproval,
		ResourceID:   formID.String(),
		Description:  "insufficient role for " + attempted,
		Success:      false,
		RiskLevel:    models.RiskHigh,
		Meta:         meta,
	})
}
