package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

// Sentinel errors returned by repositories. Services translate these into
// the domain error taxonomy before they reach a handler.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStateConflict is returned when a guarded update finds the row in a
	// lifecycle state that forbids the operation. The caller lost the race
	// or is acting on stale state; nothing was changed.
	ErrStateConflict = errors.New("state conflict")

	// ErrDuplicateToken is returned when a generated form token collides
	// with an existing row.
	ErrDuplicateToken = errors.New("duplicate form token")
)

// UserRepositoryInterface defines the contract for staff account storage.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}

// FormRepositoryInterface defines the contract for accreditation form
// storage, including the guarded lifecycle updates.
type FormRepositoryInterface interface {
	Create(ctx context.Context, form *models.AccreditationForm) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AccreditationForm, error)
	GetByToken(ctx context.Context, token string) (*models.AccreditationForm, error)
	List(ctx context.Context, filter models.FormFilter) ([]models.AccreditationForm, int64, error)
	CountByStatus(ctx context.Context) (map[models.FormStatus]int64, error)

	// Submit persists the questionnaire payload and moves the form from
	// draft to submitted under a row lock. Returns ErrStateConflict when
	// the form is no longer a draft.
	Submit(ctx context.Context, form *models.AccreditationForm) error

	// DeactivateStaleDrafts deactivates draft forms that were issued before
	// the cutoff and never submitted. Returns the affected row count.
	DeactivateStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error)

	CreateAttachment(ctx context.Context, att *models.FormAttachment) error
	ListAttachments(ctx context.Context, formID uuid.UUID) ([]models.FormAttachment, error)
}

// DecisionUpdate describes one reviewer decision to be applied atomically
// to the current approval and its owning form.
type DecisionUpdate struct {
	FormID         uuid.UUID
	ApproverID     uuid.UUID
	ApprovalStatus models.ApprovalStatus
	FormStatus     models.FormStatus
	HistoryAction  models.HistoryAction
	Comments       string
	InternalNotes  string

	// ReopenLink clears used_at and bumps the revision counter, granting
	// the external party one more submission cycle.
	ReopenLink bool
}

// ApprovalRepositoryInterface defines the contract for approval records.
// ApplyDecision and BeginReview are the only writers and both run inside a
// single transaction holding a row lock on the form.
type ApprovalRepositoryInterface interface {
	// ApplyDecision updates the current approval and the form status
	// together, appends an ApprovalHistory row, and returns the mutated
	// approval plus the form status it replaced. ErrStateConflict is
	// returned when the form is not decidable (terminal, still a draft, or
	// a concurrent decision won the lock first).
	ApplyDecision(ctx context.Context, upd DecisionUpdate) (*models.Approval, models.FormStatus, error)

	// BeginReview moves a submitted form to under_review and assigns the
	// current approval to the reviewer, creating it when absent.
	BeginReview(ctx context.Context, formID, reviewerID uuid.UUID) (*models.Approval, error)

	GetCurrent(ctx context.Context, formID uuid.UUID) (*models.Approval, error)
	History(ctx context.Context, formID uuid.UUID) ([]models.ApprovalHistory, error)
}

// AuditRepositoryInterface defines the contract for the append-only audit
// ledger. There is intentionally no update or delete.
type AuditRepositoryInterface interface {
	Create(ctx context.Context, log *models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int64, error)
	GetResourceHistory(ctx context.Context, resourceType models.AuditResource, resourceID string) ([]models.AuditLog, error)
}

// ConfigRepositoryInterface defines the contract for system configuration.
type ConfigRepositoryInterface interface {
	Get(ctx context.Context, key string) (*models.SystemConfiguration, error)
	Upsert(ctx context.Context, cfg *models.SystemConfiguration) error
	List(ctx context.Context, publicOnly bool) ([]models.SystemConfiguration, error)
}
