package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
)

// tokenRetryLimit bounds regeneration attempts on a token collision. With a
// 62-character alphabet and 32 positions a collision is vanishingly rare.
const tokenRetryLimit = 3

// FormLinkService issues tokenized external access links and guards the
// external authentication gate.
type FormLinkService struct {
	forms     repository.FormRepositoryInterface
	passwords *PasswordService
	tokens    *JWTService
	audit     *AuditService
	baseURL   string
	logger    *logrus.Logger
}

// NewFormLinkService creates a new form link service
func NewFormLinkService(
	forms repository.FormRepositoryInterface,
	passwords *PasswordService,
	tokens *JWTService,
	audit *AuditService,
	baseURL string,
	logger *logrus.Logger,
) *FormLinkService {
	return &FormLinkService{
		forms:     forms,
		passwords: passwords,
		tokens:    tokens,
		audit:     audit,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Issue creates a new draft form with a fresh token/password pair. Manager
// role or above. The plaintext password exists only in the response; the
// database keeps its bcrypt hash.
func (s *FormLinkService) Issue(ctx context.Context, actor *models.User, meta models.ClientMeta) (*models.IssueLinkResponse, error) {
	if !actor.CanAccess(models.RoleManager) {
		s.audit.Record(ctx, AuditEntry{
			Action:       models.ActionUnauthorized,
			ResourceType: models.ResourceFormLink,
			Description:  "insufficient role for link issuance",
			Success:      false,
			RiskLevel:    models.RiskHigh,
			Meta:         meta,
		})
		return nil, NewAuthorizationError("manager role required")
	}

	password, err := s.passwords.GeneratePassword()
	if err != nil {
		return nil, err
	}
	passwordHash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	var form *models.AccreditationForm
	for attempt := 0; attempt < tokenRetryLimit; attempt++ {
		token, err := s.passwords.GenerateToken()
		if err != nil {
			return nil, err
		}
		form = &models.AccreditationForm{
			FormToken:        token,
			FormPasswordHash: passwordHash,
			Status:           models.FormStatusDraft,
			IsActive:         true,
			CreatedBy:        actor.ID,
		}
		err = s.forms.Create(ctx, form)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateToken) {
			s.logger.WithField("attempt", attempt+1).Warn("Form token collision, regenerating")
			form = nil
			continue
		}
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("failed to generate a unique form token after %d attempts", tokenRetryLimit)
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionLinkIssued,
		ResourceType: models.ResourceFormLink,
		ResourceID:   form.ID.String(),
		Description:  "external form link issued",
		Success:      true,
		RiskLevel:    models.RiskMedium,
		Meta:         meta,
	})

	return &models.IssueLinkResponse{
		FormID:    form.ID.String(),
		Token:     form.FormToken,
		Password:  password,
		FormURL:   fmt.Sprintf("%s/form/%s", s.baseURL, form.FormToken),
		CreatedAt: form.CreatedAt,
	}, nil
}

// Authenticate is the external gate. A link opens iff the token resolves,
// the password matches, the link is active, the form is still a draft, and
// it has not already been used. All failures collapse into one generic
// error so callers cannot probe link state.
func (s *FormLinkService) Authenticate(ctx context.Context, req models.FormAuthRequest, meta models.ClientMeta) (*models.FormAuthResponse, error) {
	form, err := s.forms.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.auditGateFailure(ctx, meta, "", "unknown token")
			return nil, NewAuthenticationError()
		}
		return nil, err
	}

	switch {
	case !s.passwords.Verify(form.FormPasswordHash, req.Password):
		s.auditGateFailure(ctx, meta, form.ID.String(), "wrong password")
		return nil, NewAuthenticationError()
	case !form.IsActive:
		s.auditGateFailure(ctx, meta, form.ID.String(), "link deactivated")
		return nil, NewAuthenticationError()
	case form.Status != models.FormStatusDraft:
		s.auditGateFailure(ctx, meta, form.ID.String(), "form not editable")
		return nil, NewAuthenticationError()
	case form.UsedAt != nil:
		s.auditGateFailure(ctx, meta, form.ID.String(), "link already used")
		return nil, NewAuthenticationError()
	}

	session, expiresAt, err := s.tokens.IssueFormToken(form.ID, form.FormToken)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionFormAuth,
		ResourceType: models.ResourceFormLink,
		ResourceID:   form.ID.String(),
		Description:  "external party authenticated",
		Success:      true,
		RiskLevel:    models.RiskLow,
		Meta:         meta,
	})

	return &models.FormAuthResponse{
		SessionToken: session,
		ExpiresAt:    expiresAt,
		Form:         summarize(form),
	}, nil
}

// SweepStaleLinks deactivates draft links that were never submitted within
// the retention window. Called by the scheduler.
func (s *FormLinkService) SweepStaleLinks(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	swept, err := s.forms.DeactivateStaleDrafts(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.audit.Record(ctx, AuditEntry{
			Action:       models.ActionLinkSwept,
			ResourceType: models.ResourceFormLink,
			Description:  fmt.Sprintf("deactivated %d stale form links", swept),
			Success:      true,
			RiskLevel:    models.RiskLow,
			NewValues:    map[string]interface{}{"swept": swept, "cutoff": cutoff},
			Meta:         models.ClientMeta{ActorName: "system"},
		})
	}
	return swept, nil
}

func (s *FormLinkService) auditGateFailure(ctx context.Context, meta models.ClientMeta, formID, reason string) {
	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionFormAuthFailed,
		ResourceType: models.ResourceFormLink,
		ResourceID:   formID,
		Description:  "external form authentication failed",
		Success:      false,
		ErrorMessage: reason,
		RiskLevel:    models.RiskMedium,
		Meta:         meta,
	})
}

// summarize builds the external party's sanitized view of their form.
func summarize(form *models.AccreditationForm) *models.FormSummary {
	return &models.FormSummary{
		Status:        form.Status,
		CompanyName:   form.CompanyName,
		RevisionCount: form.RevisionCount,
		SubmittedAt:   form.SubmittedAt,
	}
}
