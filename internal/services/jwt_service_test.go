package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

func TestStaffTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	user := &models.User{ID: uuid.New(), Username: "dana", Role: models.RoleManager}

	token, expiresAt, err := svc.IssueStaffToken(user)
	if err != nil {
		t.Fatalf("IssueStaffToken failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}

	claims, err := svc.ValidateStaffToken(token)
	if err != nil {
		t.Fatalf("ValidateStaffToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != models.RoleManager {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestFormTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	formID := uuid.New()

	token, _, err := svc.IssueFormToken(formID, "abc123")
	if err != nil {
		t.Fatalf("IssueFormToken failed: %v", err)
	}

	claims, err := svc.ValidateFormToken(token)
	if err != nil {
		t.Fatalf("ValidateFormToken failed: %v", err)
	}
	if claims.FormID != formID || claims.FormToken != "abc123" {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	user := &models.User{ID: uuid.New(), Username: "dana", Role: models.RoleAdministrator}

	staffToken, _, err := svc.IssueStaffToken(user)
	if err != nil {
		t.Fatalf("IssueStaffToken failed: %v", err)
	}
	formToken, _, err := svc.IssueFormToken(uuid.New(), "abc123")
	if err != nil {
		t.Fatalf("IssueFormToken failed: %v", err)
	}

	if _, err := svc.ValidateFormToken(staffToken); err == nil {
		t.Error("a staff token must not open the external surface")
	}
	if _, err := svc.ValidateStaffToken(formToken); err == nil {
		t.Error("a form session must not open the staff surface")
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Hour, time.Hour)
	verifier := NewJWTService("secret-b", time.Hour, time.Hour)

	token, _, err := issuer.IssueStaffToken(&models.User{ID: uuid.New(), Role: models.RoleViewer})
	if err != nil {
		t.Fatalf("IssueStaffToken failed: %v", err)
	}
	if _, err := verifier.ValidateStaffToken(token); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}
