package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/tesseract-hub/accreditation-service/internal/models"
)

func newTestConfigStack() (*ConfigService, *fakeConfigRepo, *fakeAuditRepo) {
	logger := testLogger()
	configs := newFakeConfigRepo()
	audit := newFakeAuditRepo()
	auditSvc := NewAuditService(audit, logger)
	return NewConfigService(configs, auditSvc, logger), configs, audit
}

func admin() *models.User {
	return &models.User{ID: uuid.New(), Role: models.RoleAdministrator, IsActive: true}
}

func TestConfigSet(t *testing.T) {
	svc, _, audit := newTestConfigStack()
	ctx := context.Background()

	cfg, err := svc.Set(ctx, admin(), "forms.link_max_age_days", models.SetConfigRequest{
		Value:    45,
		DataType: models.ConfigInteger,
		Category: "forms",
	}, models.ClientMeta{})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cfg.Value != "45" {
		t.Errorf("stored value = %s, want 45", cfg.Value)
	}

	typed, err := cfg.TypedValue()
	if err != nil {
		t.Fatalf("TypedValue failed: %v", err)
	}
	if typed != 45 {
		t.Errorf("typed value = %v, want 45", typed)
	}
	if audit.countAction(models.ActionConfigUpdate) != 1 {
		t.Error("config write must be audited")
	}
}

func TestConfigSet_RequiresAdministrator(t *testing.T) {
	svc, _, audit := newTestConfigStack()

	_, err := svc.Set(context.Background(), viewer(), "k", models.SetConfigRequest{Value: "v"}, models.ClientMeta{})
	if _, ok := err.(*AuthorizationError); !ok {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if audit.countAction(models.ActionUnauthorized) != 1 {
		t.Error("unauthorized write must be audited")
	}
}

func TestConfigGet_PublicVisibility(t *testing.T) {
	svc, _, _ := newTestConfigStack()
	ctx := context.Background()

	if _, err := svc.Set(ctx, admin(), "external.support_email", models.SetConfigRequest{
		Value: "help@example.org", IsPublic: true,
	}, models.ClientMeta{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := svc.Set(ctx, admin(), "internal.review_sla_days", models.SetConfigRequest{
		Value: "5",
	}, models.ClientMeta{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Viewer sees public entries only.
	if _, err := svc.Get(ctx, viewer(), "external.support_email"); err != nil {
		t.Errorf("public entry should be readable by a viewer: %v", err)
	}
	if _, err := svc.Get(ctx, viewer(), "internal.review_sla_days"); err == nil {
		t.Error("private entry must not be readable by a viewer")
	}

	listed, err := svc.List(ctx, viewer())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("viewer list = %d entries, want 1", len(listed))
	}

	listed, err = svc.List(ctx, admin())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("admin list = %d entries, want 2", len(listed))
	}
}
