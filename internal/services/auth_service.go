package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/accreditation-service/internal/events"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
)

const minStaffPasswordLength = 8

// AuthService handles staff authentication, two-factor enrollment, and
// staff account administration.
type AuthService struct {
	users     repository.UserRepositoryInterface
	passwords *PasswordService
	totp      *TOTPService
	tokens    *JWTService
	audit     *AuditService
	publisher *events.Publisher
	logger    *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepositoryInterface,
	passwords *PasswordService,
	totp *TOTPService,
	tokens *JWTService,
	audit *AuditService,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		totp:      totp,
		tokens:    tokens,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
	}
}

// Login authenticates a staff user and issues a session token. Every failure
// path returns the same generic credential error and lands in the audit
// ledger; a caller cannot probe which part of the credential was wrong.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, meta models.ClientMeta) (*models.LoginResponse, error) {
	meta.ActorName = req.Username

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.auditLoginFailure(ctx, meta, "unknown username")
			return nil, NewAuthenticationError()
		}
		return nil, err
	}

	if !user.IsActive {
		s.auditLoginFailure(ctx, meta, "account deactivated")
		return nil, NewAuthenticationError()
	}
	if !s.passwords.Verify(user.PasswordHash, req.Password) {
		s.auditLoginFailure(ctx, meta, "wrong password")
		return nil, NewAuthenticationError()
	}

	if user.TwoFactorEnabled {
		if !s.verifySecondFactor(ctx, user, req) {
			s.auditLoginFailure(ctx, meta, "second factor failed")
			return nil, NewAuthenticationError()
		}
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login time")
	}

	token, expiresAt, err := s.tokens.IssueStaffToken(user)
	if err != nil {
		return nil, err
	}

	meta.ActorID = &user.ID
	meta.ActorName = user.FullName()
	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionLogin,
		ResourceType: models.ResourceAuth,
		ResourceID:   user.ID.String(),
		Description:  "staff login",
		Success:      true,
		RiskLevel:    models.RiskLow,
		Meta:         meta,
	})

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// verifySecondFactor accepts either a valid TOTP code or an unused backup
// code. Consuming a backup code persists the shrunken set immediately.
func (s *AuthService) verifySecondFactor(ctx context.Context, user *models.User, req models.LoginRequest) bool {
	if req.TOTPCode != "" && s.totp.ValidateCode(user.TOTPSecret, req.TOTPCode) {
		return true
	}
	if req.BackupCode != "" && s.totp.ConsumeBackupCode(user, req.BackupCode) {
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to persist consumed backup code")
			return false
		}
		return true
	}
	return false
}

func (s *AuthService) auditLoginFailure(ctx context.Context, meta models.ClientMeta, reason string) {
	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionLoginFailed,
		ResourceType: models.ResourceAuth,
		Description:  "staff login failed",
		Success:      false,
		ErrorMessage: reason,
		RiskLevel:    models.RiskMedium,
		Meta:         meta,
	})
}

// ChangePassword updates the caller's own password after verifying the
// current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req models.ChangePasswordRequest, meta models.ClientMeta) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("user")
		}
		return err
	}

	if !s.passwords.Verify(user.PasswordHash, req.CurrentPassword) {
		s.audit.Record(ctx, AuditEntry{
			Action:       models.ActionPasswordChange,
			ResourceType: models.ResourceUser,
			ResourceID:   user.ID.String(),
			Description:  "password change rejected",
			Success:      false,
			ErrorMessage: "current password mismatch",
			RiskLevel:    models.RiskMedium,
			Meta:         meta,
		})
		return NewAuthenticationError()
	}

	if len(req.NewPassword) < minStaffPasswordLength {
		verr := NewValidationError()
		verr.Add("new_password", "must be at least 8 characters")
		return verr
	}

	hash, err := s.passwords.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionPasswordChange,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "password changed",
		Success:      true,
		RiskLevel:    models.RiskMedium,
		Meta:         meta,
	})
	return nil
}

// SetupTwoFactor provisions a TOTP secret and backup codes for the caller.
// The factor stays disabled until EnableTwoFactor confirms a working code.
func (s *AuthService) SetupTwoFactor(ctx context.Context, userID uuid.UUID, meta models.ClientMeta) (*models.TwoFactorSetupResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("user")
		}
		return nil, err
	}

	secret, uri, err := s.totp.GenerateSecret(user.Username)
	if err != nil {
		return nil, err
	}
	codes, stored, err := s.totp.GenerateBackupCodes()
	if err != nil {
		return nil, err
	}

	user.TOTPSecret = secret
	user.BackupCodes = stored
	user.TwoFactorEnabled = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionTwoFactorSetup,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "two-factor secret provisioned",
		Success:      true,
		RiskLevel:    models.RiskMedium,
		Meta:         meta,
	})

	return &models.TwoFactorSetupResponse{
		Secret:          secret,
		ProvisioningURI: uri,
		BackupCodes:     codes,
	}, nil
}

// EnableTwoFactor confirms the authenticator works and turns the factor on.
func (s *AuthService) EnableTwoFactor(ctx context.Context, userID uuid.UUID, code string, meta models.ClientMeta) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("user")
		}
		return err
	}
	if user.TOTPSecret == "" {
		return NewInvalidStateError("two-factor setup has not been started")
	}
	if !s.totp.ValidateCode(user.TOTPSecret, code) {
		return NewAuthenticationError()
	}

	user.TwoFactorEnabled = true
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionTwoFactorSetup,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "two-factor enabled",
		Success:      true,
		RiskLevel:    models.RiskMedium,
		Meta:         meta,
	})
	return nil
}

// CreateUser creates a staff account. Administrator only; the role gate is
// enforced here so every caller path is covered.
func (s *AuthService) CreateUser(ctx context.Context, actor *models.User, req models.CreateUserRequest, meta models.ClientMeta) (*models.User, error) {
	if !actor.CanAccess(models.RoleAdministrator) {
		s.auditUnauthorized(ctx, meta, models.ResourceUser, "create user")
		return nil, NewAuthorizationError("administrator role required")
	}

	verr := NewValidationError()
	if !req.Role.Valid() {
		verr.Add("role", "unknown role")
	}
	if len(req.Password) < minStaffPasswordLength {
		verr.Add("password", "must be at least 8 characters")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionCreate,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "staff account created",
		Success:      true,
		RiskLevel:    models.RiskMedium,
		NewValues:    map[string]interface{}{"username": user.Username, "role": user.Role},
		Meta:         meta,
	})
	s.publisher.PublishUserEvent(events.UserEvent{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})

	return user, nil
}

// UpdateUser mutates role or active state of a staff account. Administrator
// only. Deactivation is the soft-delete path; accounts are never removed.
func (s *AuthService) UpdateUser(ctx context.Context, actor *models.User, userID uuid.UUID, req models.UpdateUserRequest, meta models.ClientMeta) (*models.User, error) {
	if !actor.CanAccess(models.RoleAdministrator) {
		s.auditUnauthorized(ctx, meta, models.ResourceUser, "update user")
		return nil, NewAuthorizationError("administrator role required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("user")
		}
		return nil, err
	}

	old := map[string]interface{}{"role": user.Role, "is_active": user.IsActive}
	action := models.ActionUpdate

	if req.Role != nil {
		if !req.Role.Valid() {
			verr := NewValidationError()
			verr.Add("role", "unknown role")
			return nil, verr
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		if !*req.IsActive {
			action = models.ActionDeactivate
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       action,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "staff account updated",
		Success:      true,
		RiskLevel:    models.RiskMedium,
		OldValues:    old,
		NewValues:    map[string]interface{}{"role": user.Role, "is_active": user.IsActive},
		Meta:         meta,
	})
	return user, nil
}

// GetUser retrieves a staff account by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("user")
		}
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves staff accounts with pagination.
func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *AuthService) auditUnauthorized(ctx context.Context, meta models.ClientMeta, resource models.AuditResource, attempted string) {
	s.audit.Record(ctx, AuditEntry{
		Action:       models.ActionUnauthorized,
		ResourceType: resource,
		Description:  "insufficient role for " + attempted,
		Success:      false,
		RiskLevel:    models.RiskHigh,
		Meta:         meta,
	})
}
