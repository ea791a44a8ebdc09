package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/events"
	"github.com/tesseract-hub/accreditation-service/internal/models"
)

func newTestFormStack() (*FormService, *fakeFormRepo, *fakeApprovalRepo, *fakeAuditRepo) {
	logger := testLogger()
	forms := newFakeFormRepo()
	approvals := newFakeApprovalRepo(forms)
	audit := newFakeAuditRepo()
	auditSvc := NewAuditService(audit, logger)
	publisher := events.NewPublisher(nil, logger)
	svc := NewFormService(forms, approvals, auditSvc, publisher, nil, logger)
	return svc, forms, approvals, audit
}

func seedDraft(forms *fakeFormRepo) *models.AccreditationForm {
	form := &models.AccreditationForm{
		FormToken:        "tok-" + uuid.New().String(),
		FormPasswordHash: "hash",
		Status:           models.FormStatusDraft,
		IsActive:         true,
		CreatedBy:        uuid.New(),
	}
	forms.Create(context.Background(), form)
	return form
}

// attachSignature stores the signed copy of the form, a prerequisite for
// submission.
func attachSignature(forms *fakeFormRepo, form *models.AccreditationForm) {
	forms.CreateAttachment(context.Background(), &models.FormAttachment{
		FormID:           form.ID,
		Filename:         uuid.New().String() + ".pdf",
		OriginalFilename: "signed-form.pdf",
		MimeType:         "application/pdf",
		AttachmentType:   models.AttachmentSignature,
	})
}

func validSubmission() models.SubmitFormRequest {
	return models.SubmitFormRequest{
		CompanyName:     "Northlight Post",
		ContactPerson:   "Dana Reyes",
		ContactNumber:   "+63-2-555-0101",
		ContactEmail:    "dana@northlight.example",
		BusinessAddress: "12 Harbor Road, Makati",
		ServicesOffered: []models.ServiceCode{models.ServiceVideoEditing, models.ServiceColorCorrection},
		AudioEngineersCount: 2,
		VideoEditorsCount:   4,
		TotalWorkstations:   6,
		WorkstationsShared:  models.SharedNo,
		AccomplishedBy:      "Dana Reyes",
		Designation:         "Operations Manager",
	}
}

func TestSubmit(t *testing.T) {
	svc, forms, _, audit := newTestFormStack()
	ctx := context.Background()
	form := seedDraft(forms)
	attachSignature(forms, form)

	got, err := svc.Submit(ctx, form.ID, validSubmission(), models.ClientMeta{})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got.Status != models.FormStatusSubmitted {
		t.Errorf("status = %s, want submitted", got.Status)
	}
	if got.SubmittedAt == nil {
		t.Error("SubmittedAt must be set")
	}
	if got.UsedAt == nil {
		t.Error("UsedAt must be set on submission")
	}
	if got.CompanyName != "Northlight Post" {
		t.Errorf("payload not applied, company = %s", got.CompanyName)
	}
	if audit.countAction(models.ActionFormSubmitted) != 1 {
		t.Error("submission must be audited")
	}
}

func TestSubmit_ValidationCollectsAllViolations(t *testing.T) {
	svc, forms, _, audit := newTestFormStack()
	ctx := context.Background()
	form := seedDraft(forms)

	req := models.SubmitFormRequest{
		ContactEmail:      "not-an-email",
		TotalWorkstations: -1,
	}
	_, err := svc.Submit(ctx, form.ID, req, models.ClientMeta{})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	for _, field := range []string{
		"company_name", "contact_person", "contact_number", "contact_email",
		"business_address", "services_offered", "total_workstations",
		"accomplished_by", "designation", "signature",
	} {
		if _, present := verr.Fields[field]; !present {
			t.Errorf("expected violation for %s", field)
		}
	}

	// The form stays a draft and the failure is in the ledger.
	stored, _ := forms.GetByID(ctx, form.ID)
	if stored.Status != models.FormStatusDraft {
		t.Errorf("failed submission must not transition the form, status = %s", stored.Status)
	}
	if audit.countAction(models.ActionFormSubmitFailed) != 1 {
		t.Error("failed submission must be audited")
	}
}

func TestSubmit_UnknownServiceCode(t *testing.T) {
	svc, forms, _, _ := newTestFormStack()
	form := seedDraft(forms)

	req := validSubmission()
	req.ServicesOffered = append(req.ServicesOffered, models.ServiceCode("catering"))
	_, err := svc.Submit(context.Background(), form.ID, req, models.ClientMeta{})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, present := verr.Fields["services_offered"]; !present {
		t.Error("expected services_offered violation")
	}
}

func TestSubmit_WorkstationCountMismatch(t *testing.T) {
	svc, forms, _, _ := newTestFormStack()
	form := seedDraft(forms)

	req := validSubmission()
	req.TotalWorkstations = 3
	req.WorkstationDetails = []models.Workstation{{MachineName: "edit-01"}}
	_, err := svc.Submit(context.Background(), form.ID, req, models.ClientMeta{})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, present := verr.Fields["total_workstations"]; !present {
		t.Error("expected total_workstations violation")
	}
}

func TestSubmit_ZeroWorkstationsRejected(t *testing.T) {
	svc, forms, _, _ := newTestFormStack()
	form := seedDraft(forms)
	attachSignature(forms, form)

	req := validSubmission()
	req.TotalWorkstations = 0
	_, err := svc.Submit(context.Background(), form.ID, req, models.ClientMeta{})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, present := verr.Fields["total_workstations"]; !present {
		t.Error("a facility must declare at least one workstation")
	}

	stored, _ := forms.GetByID(context.Background(), form.ID)
	if stored.Status != models.FormStatusDraft {
		t.Errorf("form must stay a draft, status = %s", stored.Status)
	}
}

func TestSubmit_RequiresSignatureAttachment(t *testing.T) {
	svc, forms, _, _ := newTestFormStack()
	form := seedDraft(forms)

	_, err := svc.Submit(context.Background(), form.ID, validSubmission(), models.ClientMeta{})
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, present := verr.Fields["signature"]; !present {
		t.Error("expected signature violation")
	}

	// A non-signature upload does not satisfy the requirement.
	forms.CreateAttachment(context.Background(), &models.FormAttachment{
		FormID:         form.ID,
		Filename:       uuid.New().String() + ".pdf",
		AttachmentType: models.AttachmentFloorPlan,
	})
	_, err = svc.Submit(context.Background(), form.ID, validSubmission(), models.ClientMeta{})
	verr, ok = err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, present := verr.Fields["signature"]; !present {
		t.Error("expected signature violation with only a floor plan attached")
	}

	attachSignature(forms, form)
	if _, err := svc.Submit(context.Background(), form.ID, validSubmission(), models.ClientMeta{}); err != nil {
		t.Fatalf("submit with signature attached failed: %v", err)
	}
}

func TestSubmit_TwiceFails(t *testing.T) {
	svc, forms, _, _ := newTestFormStack()
	ctx := context.Background()
	form := seedDraft(forms)
	attachSignature(forms, form)

	if _, err := svc.Submit(ctx, form.ID, validSubmission(), models.ClientMeta{}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	_, err := svc.Submit(ctx, form.ID, validSubmission(), models.ClientMeta{})
	if _, ok := err.(*InvalidStateError); !ok {
		t.Fatalf("second submit must fail with InvalidStateError, got %v", err)
	}
}

func TestSubmit_UnknownForm(t *testing.T) {
	svc, _, _, _ := newTestFormStack()
	_, err := svc.Submit(context.Background(), uuid.New(), validSubmission(), models.ClientMeta{})
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDashboardStats(t *testing.T) {
	svc, forms, _, _ := newTestFormStack()
	ctx := context.Background()

	seedDraft(forms)
	submitted := seedDraft(forms)
	attachSignature(forms, submitted)
	if _, err := svc.Submit(ctx, submitted.ID, validSubmission(), models.ClientMeta{}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	stats, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats failed: %v", err)
	}
	if stats.TotalForms != 2 {
		t.Errorf("total = %d, want 2", stats.TotalForms)
	}
	if stats.ByStatus[models.FormStatusDraft] != 1 || stats.ByStatus[models.FormStatusSubmitted] != 1 {
		t.Errorf("unexpected status counts: %v", stats.ByStatus)
	}
	if stats.PendingApprovals != 1 {
		t.Errorf("pending = %d, want 1", stats.PendingApprovals)
	}
}
