package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

// ConfigRepository handles database operations for system configuration
type ConfigRepository struct {
	db *gorm.DB
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

var _ ConfigRepositoryInterface = (*ConfigRepository)(nil)

// Get retrieves a configuration entry by key
func (r *ConfigRepository) Get(ctx context.Context, key string) (*models.SystemConfiguration, error) {
	var cfg models.SystemConfiguration
	err := r.db.WithContext(ctx).First(&cfg, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// Upsert inserts or updates a configuration entry keyed on its unique key.
func (r *ConfigRepository) Upsert(ctx context.Context, cfg *models.SystemConfiguration) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "data_type", "description", "category", "is_public", "updated_by", "updated_at",
		}),
	}).Create(cfg).Error
}

// List retrieves configuration entries, optionally restricted to public ones.
func (r *ConfigRepository) List(ctx context.Context, publicOnly bool) ([]models.SystemConfiguration, error) {
	var cfgs []models.SystemConfiguration
	query := r.db.WithContext(ctx).Order("category ASC, key ASC")
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}
	err := query.Find(&cfgs).Error
	return cfgs, err
}
