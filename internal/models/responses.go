package models

import "time"

// LoginResponse carries the staff session token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// IssueLinkResponse returns the one-time credential pair to the issuing
// manager. The plaintext password is shown exactly once and never stored.
type IssueLinkResponse struct {
	FormID    string    `json:"form_id"`
	Token     string    `json:"token"`
	Password  string    `json:"password"`
	FormURL   string    `json:"form_url"`
	CreatedAt time.Time `json:"created_at"`
}

// FormAuthResponse grants the external party a session scoped to one form.
type FormAuthResponse struct {
	SessionToken string       `json:"session_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	Form         *FormSummary `json:"form"`
}

// FormSummary is the external party's view of their own form. Credentials
// and staff-only fields are never included.
type FormSummary struct {
	Status        FormStatus `json:"status"`
	CompanyName   string     `json:"company_name,omitempty"`
	RevisionCount int        `json:"revision_count"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	Comments      string     `json:"reviewer_comments,omitempty"`
}

// DecisionResponse returns the synchronized approval and form state.
type DecisionResponse struct {
	Approval   *Approval  `json:"approval"`
	FormStatus FormStatus `json:"form_status"`
}

// TwoFactorSetupResponse carries the provisioning data for an authenticator
// app plus single-use backup codes, shown exactly once.
type TwoFactorSetupResponse struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	BackupCodes     []string `json:"backup_codes"`
}

// DashboardStats aggregates workflow counts for the staff dashboard.
type DashboardStats struct {
	TotalForms       int64                `json:"total_forms"`
	ByStatus         map[FormStatus]int64 `json:"by_status"`
	PendingApprovals int64                `json:"pending_approvals"`
	RecentForms      []AccreditationForm  `json:"recent_forms"`
}
