package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

// FormRepository handles database operations for accreditation forms
type FormRepository struct {
	db *gorm.DB
}

// NewFormRepository creates a new form repository
func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

var _ FormRepositoryInterface = (*FormRepository)(nil)

// Create inserts a new draft form. A unique-index violation on the token
// column is mapped to ErrDuplicateToken so the caller can regenerate.
func (r *FormRepository) Create(ctx context.Context, form *models.AccreditationForm) error {
	err := r.db.WithContext(ctx).Create(form).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateToken
	}
	return err
}

// GetByID retrieves a form with its attachments
func (r *FormRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccreditationForm, error) {
	var form models.AccreditationForm
	err := r.db.WithContext(ctx).Preload("Attachments").First(&form, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

// GetByToken retrieves a form by its external access token
func (r *FormRepository) GetByToken(ctx context.Context, token string) (*models.AccreditationForm, error) {
	var form models.AccreditationForm
	err := r.db.WithContext(ctx).First(&form, "form_token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

// List retrieves forms with filtering and pagination
func (r *FormRepository) List(ctx context.Context, filter models.FormFilter) ([]models.AccreditationForm, int64, error) {
	var forms []models.AccreditationForm
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AccreditationForm{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Search != "" {
		term := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where(
			"company_name ILIKE ? OR contact_person ILIKE ? OR contact_email ILIKE ?",
			term, term, term,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&forms).Error
	if err != nil {
		return nil, 0, err
	}
	return forms, total, nil
}

// CountByStatus aggregates form counts per lifecycle state.
func (r *FormRepository) CountByStatus(ctx context.Context) (map[models.FormStatus]int64, error) {
	type row struct {
		Status models.FormStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.AccreditationForm{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.FormStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// Submit persists the payload and transitions draft -> submitted. The form
// row is locked for the duration so a concurrent submit or decision cannot
// interleave; the losing caller gets ErrStateConflict.
func (r *FormRepository) Submit(ctx context.Context, form *models.AccreditationForm) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.AccreditationForm
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", form.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !locked.IsActive || !locked.Status.CanTransitionTo(models.FormStatusSubmitted) {
			return ErrStateConflict
		}

		now := time.Now().UTC()
		form.Status = models.FormStatusSubmitted
		form.SubmittedAt = &now
		form.UsedAt = &now
		return tx.Save(form).Error
	})
}

// DeactivateStaleDrafts deactivates never-submitted drafts older than cutoff.
func (r *FormRepository) DeactivateStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.AccreditationForm{}).
		Where("status = ? AND is_active = ? AND created_at < ?", models.FormStatusDraft, true, cutoff).
		Where("submitted_at IS NULL AND revision_count = 0").
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// CreateAttachment stores an attachment row for a form.
func (r *FormRepository) CreateAttachment(ctx context.Context, att *models.FormAttachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

// ListAttachments retrieves all attachments for a form.
func (r *FormRepository) ListAttachments(ctx context.Context, formID uuid.UUID) ([]models.FormAttachment, error) {
	var atts []models.FormAttachment
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("uploaded_at ASC").
		Find(&atts).Error
	return atts, err
}

// isUniqueViolation reports whether the error is a Postgres unique-index
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
