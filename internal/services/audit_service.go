package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
)

// AuditEntry describes one event to be written to the ledger.
type AuditEntry struct {
	Action       models.AuditAction
	ResourceType models.AuditResource
	ResourceID   string
	Description  string
	Success      bool
	ErrorMessage string
	RiskLevel    models.RiskLevel
	OldValues    interface{}
	NewValues    interface{}
	Meta         models.ClientMeta
}

// AuditService writes and queries the append-only audit ledger. Writing is
// best-effort from the caller's perspective: a ledger failure is logged and
// surfaced in logs, but never turns a succeeded operation into a failure.
type AuditService struct {
	repo   repository.AuditRepositoryInterface
	logger *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo repository.AuditRepositoryInterface, logger *logrus.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an entry to the ledger.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if entry.RiskLevel == "" {
		entry.RiskLevel = models.RiskLow
	}

	log := &models.AuditLog{
		ActorID:      entry.Meta.ActorID,
		ActorName:    entry.Meta.ActorName,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Description:  entry.Description,
		Success:      entry.Success,
		ErrorMessage: entry.ErrorMessage,
		RiskLevel:    entry.RiskLevel,
		IPAddress:    entry.Meta.IPAddress,
		UserAgent:    entry.Meta.UserAgent,
		Method:       entry.Meta.Method,
		Endpoint:     entry.Meta.Endpoint,
	}
	log.OldValues = marshalValues(entry.OldValues, s.logger)
	log.NewValues = marshalValues(entry.NewValues, s.logger)

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action":        entry.Action,
			"resource_type": entry.ResourceType,
			"resource_id":   entry.ResourceID,
		}).WithError(err).Error("Failed to write audit log entry")
		return
	}

	if log.IsHighRisk() {
		s.logger.WithFields(logrus.Fields{
			"action":      log.Action,
			"resource_id": log.ResourceID,
			"risk_level":  log.RiskLevel,
			"actor_name":  log.ActorName,
			"ip_address":  log.IPAddress,
		}).Warn("High-risk audit event recorded")
	}
}

// GetByID retrieves a single ledger entry.
func (s *AuditService) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, NewNotFoundError("audit log")
		}
		return nil, err
	}
	return log, nil
}

// List queries the ledger with filters and pagination.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, filter)
}

// ResourceHistory returns the full trail for one resource, oldest first.
func (s *AuditService) ResourceHistory(ctx context.Context, resourceType models.AuditResource, resourceID string) ([]models.AuditLog, error) {
	return s.repo.GetResourceHistory(ctx, resourceType, resourceID)
}

func marshalValues(v interface{}, logger *logrus.Logger) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.WithError(err).Warn("Failed to marshal audit values")
		return nil
	}
	return raw
}
