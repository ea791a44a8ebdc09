package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

// ApprovalRepository handles database operations for approvals and their
// history. All writes run in a single transaction that locks the owning
// form row, which is what keeps the approval and form status synchronized
// under concurrent reviewers.
type ApprovalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

var _ ApprovalRepositoryInterface = (*ApprovalRepository)(nil)

// ApplyDecision applies one reviewer decision atomically: the current
// approval row, the form status, and the history row either all commit or
// none do. The form row is re-read under FOR UPDATE so of two concurrent
// deciders exactly one succeeds; the other observes ErrStateConflict.
func (r *ApprovalRepository) ApplyDecision(ctx context.Context, upd DecisionUpdate) (*models.Approval, models.FormStatus, error) {
	var approval *models.Approval
	var previous models.FormStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var form models.AccreditationForm
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&form, "id = ?", upd.FormID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		previous = form.Status
		if !previous.CanTransitionTo(upd.FormStatus) {
			return ErrStateConflict
		}
		if upd.ReopenLink && form.RevisionCount >= 1 {
			// Only one revision cycle is granted per form.
			return ErrStateConflict
		}

		current, err := r.currentForUpdate(tx, upd.FormID)
		if err != nil {
			return err
		}
		if current == nil {
			current = &models.Approval{
				FormID:     upd.FormID,
				ApproverID: upd.ApproverID,
				Status:     models.ApprovalPending,
				IsCurrent:  true,
			}
			if err := tx.Create(current).Error; err != nil {
				return err
			}
		}
		if current.Completed() {
			return ErrStateConflict
		}

		now := time.Now().UTC()
		current.ApproverID = upd.ApproverID
		current.Status = upd.ApprovalStatus
		current.Comments = upd.Comments
		current.InternalNotes = upd.InternalNotes
		current.ReviewedAt = &now
		if err := tx.Save(current).Error; err != nil {
			return err
		}

		form.Status = upd.FormStatus
		if upd.ReopenLink {
			form.RevisionCount++
			form.UsedAt = nil
		}
		if err := tx.Save(&form).Error; err != nil {
			return err
		}

		history := &models.ApprovalHistory{
			FormID:         upd.FormID,
			ApproverID:     upd.ApproverID,
			Action:         upd.HistoryAction,
			PreviousStatus: previous,
			NewStatus:      upd.FormStatus,
			Comments:       upd.Comments,
			InternalNotes:  upd.InternalNotes,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}

		approval = current
		return nil
	})
	if err != nil {
		return nil, previous, err
	}
	return approval, previous, nil
}

// BeginReview moves a submitted form to under_review and assigns the current
// approval to the reviewer. Idempotent against a form already under review
// only in the sense that the second caller gets ErrStateConflict.
func (r *ApprovalRepository) BeginReview(ctx context.Context, formID, reviewerID uuid.UUID) (*models.Approval, error) {
	var approval *models.Approval

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var form models.AccreditationForm
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&form, "id = ?", formID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !form.Status.CanTransitionTo(models.FormStatusUnderReview) {
			return ErrStateConflict
		}

		current, err := r.currentForUpdate(tx, formID)
		if err != nil {
			return err
		}
		if current == nil {
			current = &models.Approval{
				FormID:     formID,
				ApproverID: reviewerID,
				Status:     models.ApprovalPending,
				IsCurrent:  true,
			}
			if err := tx.Create(current).Error; err != nil {
				return err
			}
		}

		form.Status = models.FormStatusUnderReview
		if err := tx.Save(&form).Error; err != nil {
			return err
		}

		history := &models.ApprovalHistory{
			FormID:         formID,
			ApproverID:     reviewerID,
			Action:         models.HistoryAssigned,
			PreviousStatus: models.FormStatusSubmitted,
			NewStatus:      models.FormStatusUnderReview,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}

		approval = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approval, nil
}

// GetCurrent retrieves the form's current approval, or ErrNotFound when no
// review action has happened yet.
func (r *ApprovalRepository) GetCurrent(ctx context.Context, formID uuid.UUID) (*models.Approval, error) {
	var approval models.Approval
	err := r.db.WithContext(ctx).
		Where("form_id = ? AND is_current = ?", formID, true).
		First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &approval, nil
}

// History retrieves the decision trail for a form, oldest first.
func (r *ApprovalRepository) History(ctx context.Context, formID uuid.UUID) ([]models.ApprovalHistory, error) {
	var history []models.ApprovalHistory
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("action_at ASC").
		Find(&history).Error
	return history, err
}

// currentForUpdate loads the current approval under the transaction's lock,
// returning nil when none exists yet.
func (r *ApprovalRepository) currentForUpdate(tx *gorm.DB, formID uuid.UUID) (*models.Approval, error) {
	var approval models.Approval
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("form_id = ? AND is_current = ?", formID, true).
		First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &approval, nil
}
