package migration

import (
	"context"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// Run migrates the schema and seeds the bootstrap administrator and the
// default system configuration. Seeding is idempotent.
func Run(db *gorm.DB, logger *logrus.Logger) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.AccreditationForm{},
		&models.FormAttachment{},
		&models.Approval{},
		&models.ApprovalHistory{},
		&models.AuditLog{},
		&models.SystemConfiguration{},
	); err != nil {
		return err
	}
	logger.Info("Database schema migrated")

	if err := seedAdmin(db, logger); err != nil {
		return err
	}
	return seedDefaultConfigs(db, logger)
}

// seedAdmin creates the bootstrap administrator when no users exist. The
// credentials come from the environment; without them the seed is skipped
// and accounts must be created out of band.
func seedAdmin(db *gorm.DB, logger *logrus.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		logger.Warn("No users exist and ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	passwords := services.NewPasswordService()
	hash, err := passwords.Hash(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     username,
		Email:        os.Getenv("ADMIN_EMAIL"),
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         models.RoleAdministrator,
		IsActive:     true,
	}
	if admin.Email == "" {
		admin.Email = username + "@localhost"
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}
	logger.WithField("username", username).Info("Bootstrap administrator created")
	return nil
}

func seedDefaultConfigs(db *gorm.DB, logger *logrus.Logger) error {
	defaults := []models.SystemConfiguration{
		{
			Key:         "forms.link_max_age_days",
			Value:       "30",
			DataType:    models.ConfigInteger,
			Description: "Days before an unused form link is deactivated",
			Category:    "forms",
			IsSystem:    true,
		},
		{
			Key:         "forms.max_revision_cycles",
			Value:       "1",
			DataType:    models.ConfigInteger,
			Description: "Revision cycles granted per form",
			Category:    "forms",
			IsSystem:    true,
		},
		{
			Key:         "external.support_email",
			Value:       "accreditation@example.org",
			DataType:    models.ConfigString,
			Description: "Support contact shown to external parties",
			Category:    "external",
			IsPublic:    true,
		},
	}

	repo := repository.NewConfigRepository(db)
	ctx := context.Background()
	for i := range defaults {
		_, err := repo.Get(ctx, defaults[i].Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := db.Create(&defaults[i]).Error; err != nil {
			return err
		}
		logger.WithField("key", defaults[i].Key).Debug("Seeded default configuration")
	}
	return nil
}
