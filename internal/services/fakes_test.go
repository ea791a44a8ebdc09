package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
)

// In-memory repository fakes mirroring the guarded-update semantics of the
// real gorm implementations, including the lifecycle checks that produce
// ErrStateConflict.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type fakeFormRepo struct {
	mu    sync.Mutex
	forms map[uuid.UUID]*models.AccreditationForm
	atts  map[uuid.UUID][]models.FormAttachment
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{
		forms: make(map[uuid.UUID]*models.AccreditationForm),
		atts:  make(map[uuid.UUID][]models.FormAttachment),
	}
}

func (r *fakeFormRepo) Create(ctx context.Context, form *models.AccreditationForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.forms {
		if f.FormToken == form.FormToken {
			return repository.ErrDuplicateToken
		}
	}
	if form.ID == uuid.Nil {
		form.ID = uuid.New()
	}
	form.CreatedAt = time.Now().UTC()
	cp := *form
	r.forms[form.ID] = &cp
	return nil
}

func (r *fakeFormRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AccreditationForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	cp.Attachments = append([]models.FormAttachment(nil), r.atts[id]...)
	return &cp, nil
}

func (r *fakeFormRepo) GetByToken(ctx context.Context, token string) (*models.AccreditationForm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.forms {
		if f.FormToken == token {
			cp := *f
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeFormRepo) List(ctx context.Context, filter models.FormFilter) ([]models.AccreditationForm, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AccreditationForm, 0, len(r.forms))
	for _, f := range r.forms {
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(f.CompanyName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *f)
	}
	return out, int64(len(out)), nil
}

func (r *fakeFormRepo) CountByStatus(ctx context.Context) (map[models.FormStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.FormStatus]int64)
	for _, f := range r.forms {
		counts[f.Status]++
	}
	return counts, nil
}

func (r *fakeFormRepo) Submit(ctx context.Context, form *models.AccreditationForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.forms[form.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !stored.IsActive || !stored.Status.CanTransitionTo(models.FormStatusSubmitted) {
		return repository.ErrStateConflict
	}
	now := time.Now().UTC()
	form.Status = models.FormStatusSubmitted
	form.SubmittedAt = &now
	form.UsedAt = &now
	cp := *form
	r.forms[form.ID] = &cp
	return nil
}

func (r *fakeFormRepo) DeactivateStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for _, f := range r.forms {
		if f.Status == models.FormStatusDraft && f.IsActive && f.CreatedAt.Before(cutoff) &&
			f.SubmittedAt == nil && f.RevisionCount == 0 {
			f.IsActive = false
			swept++
		}
	}
	return swept, nil
}

func (r *fakeFormRepo) CreateAttachment(ctx context.Context, att *models.FormAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	r.atts[att.FormID] = append(r.atts[att.FormID], *att)
	return nil
}

func (r *fakeFormRepo) ListAttachments(ctx context.Context, formID uuid.UUID) ([]models.FormAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.FormAttachment(nil), r.atts[formID]...), nil
}

type fakeApprovalRepo struct {
	mu      sync.Mutex
	forms   *fakeFormRepo
	current map[uuid.UUID]*models.Approval
	history map[uuid.UUID][]models.ApprovalHistory
}

func newFakeApprovalRepo(forms *fakeFormRepo) *fakeApprovalRepo {
	return &fakeApprovalRepo{
		forms:   forms,
		current: make(map[uuid.UUID]*models.Approval),
		history: make(map[uuid.UUID][]models.ApprovalHistory),
	}
}

func (r *fakeApprovalRepo) ApplyDecision(ctx context.Context, upd repository.DecisionUpdate) (*models.Approval, models.FormStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms.mu.Lock()
	defer r.forms.mu.Unlock()

	form, ok := r.forms.forms[upd.FormID]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	previous := form.Status
	if !previous.CanTransitionTo(upd.FormStatus) {
		return nil, previous, repository.ErrStateConflict
	}
	if upd.ReopenLink && form.RevisionCount >= 1 {
		return nil, previous, repository.ErrStateConflict
	}

	approval := r.current[upd.FormID]
	if approval == nil {
		approval = &models.Approval{
			ID:        uuid.New(),
			FormID:    upd.FormID,
			Status:    models.ApprovalPending,
			IsCurrent: true,
		}
		r.current[upd.FormID] = approval
	}
	if approval.Completed() {
		return nil, previous, repository.ErrStateConflict
	}

	now := time.Now().UTC()
	approval.ApproverID = upd.ApproverID
	approval.Status = upd.ApprovalStatus
	approval.Comments = upd.Comments
	approval.InternalNotes = upd.InternalNotes
	approval.ReviewedAt = &now

	form.Status = upd.FormStatus
	if upd.ReopenLink {
		form.RevisionCount++
		form.UsedAt = nil
	}

	r.history[upd.FormID] = append(r.history[upd.FormID], models.ApprovalHistory{
		ID:             uuid.New(),
		FormID:         upd.FormID,
		ApproverID:     upd.ApproverID,
		Action:         upd.HistoryAction,
		PreviousStatus: previous,
		NewStatus:      upd.FormStatus,
		Comments:       upd.Comments,
		ActionAt:       now,
	})

	cp := *approval
	return &cp, previous, nil
}

func (r *fakeApprovalRepo) BeginReview(ctx context.Context, formID, reviewerID uuid.UUID) (*models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms.mu.Lock()
	defer r.forms.mu.Unlock()

	form, ok := r.forms.forms[formID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !form.Status.CanTransitionTo(models.FormStatusUnderReview) {
		return nil, repository.ErrStateConflict
	}

	approval := r.current[formID]
	if approval == nil {
		approval = &models.Approval{
			ID:         uuid.New(),
			FormID:     formID,
			ApproverID: reviewerID,
			Status:     models.ApprovalPending,
			IsCurrent:  true,
		}
		r.current[formID] = approval
	}

	form.Status = models.FormStatusUnderReview
	r.history[formID] = append(r.history[formID], models.ApprovalHistory{
		ID:             uuid.New(),
		FormID:         formID,
		ApproverID:     reviewerID,
		Action:         models.HistoryAssigned,
		PreviousStatus: models.FormStatusSubmitted,
		NewStatus:      models.FormStatusUnderReview,
		ActionAt:       time.Now().UTC(),
	})

	cp := *approval
	return &cp, nil
}

func (r *fakeApprovalRepo) GetCurrent(ctx context.Context, formID uuid.UUID) (*models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	approval, ok := r.current[formID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *approval
	return &cp, nil
}

func (r *fakeApprovalRepo) History(ctx context.Context, formID uuid.UUID) ([]models.ApprovalHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ApprovalHistory(nil), r.history[formID]...), nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.logs {
		if r.logs[i].ID == id {
			cp := r.logs[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAuditRepo) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditLog, 0, len(r.logs))
	for _, l := range r.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) GetResourceHistory(ctx context.Context, resourceType models.AuditResource, resourceID string) ([]models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditLog, 0)
	for _, l := range r.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

// lastAction returns the most recent ledger action, for asserting that an
// operation was audited.
func (r *fakeAuditRepo) lastAction() models.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) == 0 {
		return ""
	}
	return r.logs[len(r.logs)-1].Action
}

func (r *fakeAuditRepo) countAction(action models.AuditAction) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if l.Action == action {
			n++
		}
	}
	return n
}

type fakeConfigRepo struct {
	mu      sync.Mutex
	entries map[string]*models.SystemConfiguration
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{entries: make(map[string]*models.SystemConfiguration)}
}

func (r *fakeConfigRepo) Get(ctx context.Context, key string) (*models.SystemConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.entries[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (r *fakeConfigRepo) Upsert(ctx context.Context, cfg *models.SystemConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cp := *cfg
	r.entries[cfg.Key] = &cp
	return nil
}

func (r *fakeConfigRepo) List(ctx context.Context, publicOnly bool) ([]models.SystemConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SystemConfiguration, 0, len(r.entries))
	for _, cfg := range r.entries {
		if publicOnly && !cfg.IsPublic {
			continue
		}
		out = append(out, *cfg)
	}
	return out, nil
}

// testLogger returns a quiet logger for service tests.
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
