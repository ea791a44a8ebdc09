package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

func newTestLinkService(forms *fakeFormRepo, audit *fakeAuditRepo) *FormLinkService {
	logger := testLogger()
	passwords := NewPasswordService()
	tokens := NewJWTService("test-secret", time.Hour, time.Hour)
	auditSvc := NewAuditService(audit, logger)
	return NewFormLinkService(forms, passwords, tokens, auditSvc, "https://accredit.example.org", logger)
}

func manager() *models.User {
	return &models.User{ID: uuid.New(), Role: models.RoleManager, IsActive: true, FirstName: "Mara", LastName: "Lopez"}
}

func viewer() *models.User {
	return &models.User{ID: uuid.New(), Role: models.RoleViewer, IsActive: true}
}

func TestIssueLink(t *testing.T) {
	forms := newFakeFormRepo()
	audit := newFakeAuditRepo()
	svc := newTestLinkService(forms, audit)
	ctx := context.Background()

	resp, err := svc.Issue(ctx, manager(), models.ClientMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if len(resp.Token) != 32 {
		t.Errorf("token length = %d, want 32", len(resp.Token))
	}
	if len(resp.Password) != 12 {
		t.Errorf("password length = %d, want 12", len(resp.Password))
	}
	if resp.FormURL != "https://accredit.example.org/form/"+resp.Token {
		t.Errorf("unexpected form URL %s", resp.FormURL)
	}

	form, err := forms.GetByToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("issued form not stored: %v", err)
	}
	if form.Status != models.FormStatusDraft {
		t.Errorf("new form status = %s, want draft", form.Status)
	}
	if form.FormPasswordHash == resp.Password {
		t.Error("password must be stored hashed, not in plaintext")
	}
	if audit.lastAction() != models.ActionLinkIssued {
		t.Errorf("last audit action = %s, want FORM_LINK_ISSUED", audit.lastAction())
	}
}

func TestIssueLink_RequiresManager(t *testing.T) {
	forms := newFakeFormRepo()
	audit := newFakeAuditRepo()
	svc := newTestLinkService(forms, audit)

	_, err := svc.Issue(context.Background(), viewer(), models.ClientMeta{})
	if _, ok := err.(*AuthorizationError); !ok {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if audit.lastAction() != models.ActionUnauthorized {
		t.Errorf("unauthorized attempt must be audited, got %s", audit.lastAction())
	}
}

func TestAuthenticate(t *testing.T) {
	forms := newFakeFormRepo()
	audit := newFakeAuditRepo()
	svc := newTestLinkService(forms, audit)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, manager(), models.ClientMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	resp, err := svc.Authenticate(ctx, models.FormAuthRequest{
		Token:    issued.Token,
		Password: issued.Password,
	}, models.ClientMeta{})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if resp.SessionToken == "" {
		t.Error("expected a session token")
	}
	if resp.Form == nil || resp.Form.Status != models.FormStatusDraft {
		t.Error("expected draft form summary")
	}
}

func TestAuthenticate_FailuresAreUniform(t *testing.T) {
	forms := newFakeFormRepo()
	audit := newFakeAuditRepo()
	svc := newTestLinkService(forms, audit)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, manager(), models.ClientMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Wrong password.
	_, err = svc.Authenticate(ctx, models.FormAuthRequest{Token: issued.Token, Password: "wrong-password"}, models.ClientMeta{})
	authErr, ok := err.(*AuthenticationError)
	if !ok {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}

	// Unknown token yields the byte-identical message.
	_, err2 := svc.Authenticate(ctx, models.FormAuthRequest{Token: "no-such-token", Password: issued.Password}, models.ClientMeta{})
	authErr2, ok := err2.(*AuthenticationError)
	if !ok {
		t.Fatalf("expected AuthenticationError, got %v", err2)
	}
	if authErr.Message != authErr2.Message {
		t.Errorf("failure messages differ: %q vs %q", authErr.Message, authErr2.Message)
	}

	if audit.countAction(models.ActionFormAuthFailed) != 2 {
		t.Errorf("expected 2 gate failure audit rows, got %d", audit.countAction(models.ActionFormAuthFailed))
	}
}

func TestAuthenticate_UsedLinkIsClosed(t *testing.T) {
	forms := newFakeFormRepo()
	audit := newFakeAuditRepo()
	svc := newTestLinkService(forms, audit)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, manager(), models.ClientMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	form, _ := forms.GetByToken(ctx, issued.Token)
	now := time.Now().UTC()
	form.UsedAt = &now
	forms.mu.Lock()
	forms.forms[form.ID] = form
	forms.mu.Unlock()

	_, err = svc.Authenticate(ctx, models.FormAuthRequest{Token: issued.Token, Password: issued.Password}, models.ClientMeta{})
	if _, ok := err.(*AuthenticationError); !ok {
		t.Fatalf("used link must fail authentication, got %v", err)
	}
}

func TestAuthenticate_NonDraftIsClosed(t *testing.T) {
	forms := newFakeFormRepo()
	audit := newFakeAuditRepo()
	svc := newTestLinkService(forms, audit)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, manager(), models.ClientMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	form, _ := forms.GetByToken(ctx, issued.Token)
	form.Status = models.FormStatusSubmitted
	forms.mu.Lock()
	forms.forms[form.ID] = form
	forms.mu.Unlock()

	_, err = svc.Authenticate(ctx, models.FormAuthRequest{Token: issued.Token, Password: issued.Password}, models.ClientMeta{})
	if _, ok := err.(*AuthenticationError); !ok {
		t.Fatalf("submitted form must fail the gate, got %v", err)
	}
}

func TestSweepStaleLinks(t *testing.T) {
	forms := newFakeFormRepo()
	audit := newFakeAuditRepo()
	svc := newTestLinkService(forms, audit)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, manager(), models.ClientMeta{})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Backdate the draft beyond the retention window.
	form, _ := forms.GetByToken(ctx, issued.Token)
	form.CreatedAt = time.Now().UTC().Add(-40 * 24 * time.Hour)
	forms.mu.Lock()
	forms.forms[form.ID] = form
	forms.mu.Unlock()

	swept, err := svc.SweepStaleLinks(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}

	_, err = svc.Authenticate(ctx, models.FormAuthRequest{Token: issued.Token, Password: issued.Password}, models.ClientMeta{})
	if _, ok := err.(*AuthenticationError); !ok {
		t.Fatalf("swept link must fail the gate, got %v", err)
	}
	if audit.countAction(models.ActionLinkSwept) != 1 {
		t.Errorf("sweep must be audited")
	}
}
