package models

import "github.com/google/uuid"

// LoginRequest is the staff login payload. TOTPCode is required once the
// account has two-factor enabled; a backup code may be supplied instead.
type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	TOTPCode   string `json:"totp_code"`
	BackupCode string `json:"backup_code"`
}

// ChangePasswordRequest updates the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// CreateUserRequest is the admin-only staff account creation payload.
type CreateUserRequest struct {
	Username  string   `json:"username" binding:"required"`
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required"`
	FirstName string   `json:"first_name" binding:"required"`
	LastName  string   `json:"last_name" binding:"required"`
	Role      UserRole `json:"role" binding:"required"`
}

// UpdateUserRequest mutates role or active state of a staff account.
type UpdateUserRequest struct {
	Role     *UserRole `json:"role"`
	IsActive *bool     `json:"is_active"`
}

// FormAuthRequest is the external gate: token plus link password.
type FormAuthRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SubmitFormRequest is the full questionnaire payload. Attachments are
// uploaded beforehand and referenced implicitly through the form.
type SubmitFormRequest struct {
	CompanyName     string `json:"company_name"`
	ContactPerson   string `json:"contact_person"`
	ContactNumber   string `json:"contact_number"`
	ContactEmail    string `json:"contact_email"`
	BusinessAddress string `json:"business_address"`
	BusinessEmail   string `json:"business_email"`

	ServicesOffered []ServiceCode    `json:"services_offered"`
	ServicesOther   string           `json:"services_other"`
	FacilityFormats []FacilityFormat `json:"facility_formats"`

	AudioSoftware    []SoftwareEntry `json:"audio_software"`
	EditingSoftware  []SoftwareEntry `json:"editing_software"`
	GraphicsSoftware []SoftwareEntry `json:"graphics_software"`

	AudioEngineersCount  int `json:"audio_engineers_count"`
	VideoEditorsCount    int `json:"video_editors_count"`
	ColoristsCount       int `json:"colorists_count"`
	GraphicsArtistsCount int `json:"graphics_artists_count"`
	AnimatorsCount       int `json:"animators_count"`

	TotalWorkstations  int           `json:"total_workstations"`
	WorkstationsShared SharedStatus  `json:"workstations_shared"`
	WorkstationDetails []Workstation `json:"workstation_details"`

	AccomplishedBy string `json:"accomplished_by"`
	Designation    string `json:"designation"`
}

// DecisionRequest is the reviewer decision payload.
type DecisionRequest struct {
	Action        ApprovalAction `json:"action" binding:"required"`
	Comments      string         `json:"comments"`
	InternalNotes string         `json:"internal_notes"`
}

// SetConfigRequest writes a system configuration entry.
type SetConfigRequest struct {
	Value       interface{} `json:"value" binding:"required"`
	DataType    ConfigType  `json:"data_type"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	IsPublic    bool        `json:"is_public"`
}

// ClientMeta carries request metadata down into the audit trail.
type ClientMeta struct {
	ActorID   *uuid.UUID
	ActorName string
	IPAddress string
	UserAgent string
	Method    string
	Endpoint  string
}
