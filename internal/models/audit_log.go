package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction represents the type of action performed
type AuditAction string

const (
	// Authentication actions
	ActionLogin          AuditAction = "LOGIN"
	ActionLoginFailed    AuditAction = "LOGIN_FAILED"
	ActionLogout         AuditAction = "LOGOUT"
	ActionPasswordChange AuditAction = "PASSWORD_CHANGE"
	ActionTwoFactorSetup AuditAction = "TWO_FACTOR_SETUP"

	// Form link / external gate actions
	ActionLinkIssued     AuditAction = "FORM_LINK_ISSUED"
	ActionLinkSwept      AuditAction = "FORM_LINK_SWEPT"
	ActionFormAuth       AuditAction = "FORM_AUTH"
	ActionFormAuthFailed AuditAction = "FORM_AUTH_FAILED"

	// Workflow actions
	ActionFormSubmitted     AuditAction = "FORM_SUBMITTED"
	ActionFormSubmitFailed  AuditAction = "FORM_SUBMIT_FAILED"
	ActionReviewStarted     AuditAction = "REVIEW_STARTED"
	ActionFormApproved      AuditAction = "FORM_APPROVED"
	ActionFormRejected      AuditAction = "FORM_REJECTED"
	ActionRevisionRequested AuditAction = "REVISION_REQUESTED"
	ActionDecisionFailed    AuditAction = "DECISION_FAILED"

	// CRUD / admin actions
	ActionCreate       AuditAction = "CREATE"
	ActionUpdate       AuditAction = "UPDATE"
	ActionDeactivate   AuditAction = "DEACTIVATE"
	ActionExport       AuditAction = "EXPORT"
	ActionConfigUpdate AuditAction = "CONFIG_UPDATE"

	// Security
	ActionUnauthorized AuditAction = "UNAUTHORIZED_ACCESS"
)

// AuditResource represents the type of resource being audited
type AuditResource string

const (
	ResourceUser     AuditResource = "USER"
	ResourceForm     AuditResource = "FORM"
	ResourceFormLink AuditResource = "FORM_LINK"
	ResourceApproval AuditResource = "APPROVAL"
	ResourceConfig   AuditResource = "CONFIG"
	ResourceAuth     AuditResource = "AUTH"
)

// RiskLevel represents the security weight of an audit event
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AuditLog is a single append-only ledger entry. Rows are never updated or
// deleted; retention is an operational concern outside this service.
type AuditLog struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	// ActorID is nullable: external submitters and system jobs have no user.
	ActorID   *uuid.UUID `json:"actor_id" gorm:"type:uuid;index"`
	ActorName string     `json:"actor_name" gorm:"type:varchar(255)"`

	Action       AuditAction   `json:"action" gorm:"type:varchar(50);not null;index"`
	ResourceType AuditResource `json:"resource_type" gorm:"type:varchar(50);index"`
	ResourceID   string        `json:"resource_id" gorm:"type:varchar(255);index"`

	// Before/after snapshots of the mutated state.
	OldValues datatypes.JSON `json:"old_values" gorm:"type:jsonb"`
	NewValues datatypes.JSON `json:"new_values" gorm:"type:jsonb"`

	Description  string    `json:"description" gorm:"type:text"`
	Success      bool      `json:"success" gorm:"not null;default:true;index"`
	ErrorMessage string    `json:"error_message" gorm:"type:text"`
	RiskLevel    RiskLevel `json:"risk_level" gorm:"type:varchar(20);not null;default:'low';index"`

	// Client metadata
	IPAddress string `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent string `json:"user_agent" gorm:"type:text"`
	Method    string `json:"method" gorm:"type:varchar(10)"`
	Endpoint  string `json:"endpoint" gorm:"type:varchar(255)"`

	Timestamp time.Time `json:"timestamp" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook to set timestamp
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}

// IsHighRisk reports whether the event is high or critical risk.
func (a *AuditLog) IsHighRisk() bool {
	return a.RiskLevel == RiskHigh || a.RiskLevel == RiskCritical
}

// AuditLogFilter represents filter criteria for searching audit logs
type AuditLogFilter struct {
	ActorID      *uuid.UUID
	Action       AuditAction
	ResourceType AuditResource
	ResourceID   string
	RiskLevel    RiskLevel
	Success      *bool
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}
