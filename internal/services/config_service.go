package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
)

// ConfigService manages runtime-tunable system configuration. Every write
// lands in the audit ledger with the old and new values.
type ConfigService struct {
	configs repository.ConfigRepositoryInterface
	audit   *AuditService
	logger  *logrus.Logger
}

// NewConfigService creates a new config service
func NewConfigService(configs repository.ConfigRepositoryInterface, audit *AuditService, logger *logrus.Logger) *ConfigService {
	return &ConfigService{configs: configs, audit: audit, logger: logger}
}

// Get retrieves a configuration entry. Non-public entries require the
// administrator role.
func (s *ConfigService) Get(ctx context.Context, actor *models.User, key string) (*models.SystemConfiguration, error) {
	cfg, err := s.configs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("configuration")
		}
		return nil, err
	}
	if !cfg.IsPublic && !actor.CanAccess(models.RoleAdministrator) {
		return nil, NewAuthorizationError("administrator role required")
	}
	return cfg, nil
}

// List retrieves configuration entries. Non-administrators only see public
// entries.
func (s *ConfigService) List(ctx context.Context, actor *models.User) ([]models.SystemConfiguration, error) {
	publicOnly := !actor.CanAccess(models.RoleAdministrator)
	return s.configs.List(ctx, publicOnly)
}

// Set writes a configuration entry. Administrator only.
func (s *ConfigService) Set(ctx context.Context, actor *models.User, key string, req models.SetConfigRequest, meta models.ClientMeta) (*models.SystemConfiguration, error) {
	if !actor.CanAccess(models.RoleAdministrator) {
		s.audit.Record(ctx, AuditEntry{
			Action:       models.ActionUnauthorized,
			ResourceType: models.ResourceConfig,
			ResourceID:   key,
			Description:  "insufficient role for config write",
			Success:      false,
			RiskLevel:    models.RiskHigh,
			Meta:         meta,
		})
		return nil, NewAuthorizationError("administrator role required")
	}

	dataType := req.DataType
	if dataType == "" {
		dataType = models.ConfigString
	}

	var oldValue interface{}
	if existing, err := s.configs.Get(ctx, key); err == nil {
		oldValue, _ = existing.TypedValue()
	}

	cfg := &models.SystemConfiguration{
		Key:         key,
		DataType:    dataType,
		Description: req.Description,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
		UpdatedBy:   meta.ActorID,
	}
	if err := cfg.EncodeValue(req.Value); err != nil {
		verr := NewValidationError()
		verr.Add("value", err.Error())
		return nil, verr
	}
	// Round-trip through the declared type so a malformed value is rejected
	// before it is stored.
	if _, err := cfg.TypedValue(); err != nil {
		verr := NewValidationError()
		verr.Add("value", err.Error())
		return nil, verr
	}

	if err := s.configs.Upsert(ctx, cfg); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionConfigUpdate,
		ResourceType: models.ResourceConfig,
		ResourceID:   key,
		Description:  "configuration updated",
		Success:      true,
		RiskLevel:    models.RiskMedium,
		OldValues:    map[string]interface{}{"value": oldValue},
		NewValues:    map[string]interface{}{"value": req.Value},
		Meta:         meta,
	})
	return cfg, nil
}
