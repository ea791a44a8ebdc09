package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FormStatus is the lifecycle state of an accreditation form.
//
// Legal transitions:
//
//	draft -> submitted -> under_review -> approved | rejected
//	submitted -> approved | rejected | draft (a decision may skip the review claim)
//	under_review -> draft (revision requested, one extra cycle)
//
// Terminal states are approved and rejected.
type FormStatus string

const (
	FormStatusDraft       FormStatus = "draft"
	FormStatusSubmitted   FormStatus = "submitted"
	FormStatusUnderReview FormStatus = "under_review"
	FormStatusApproved    FormStatus = "approved"
	FormStatusRejected    FormStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from the status.
func (s FormStatus) Terminal() bool {
	return s == FormStatusApproved || s == FormStatusRejected
}

// CanTransitionTo reports whether moving from s to next is a legal step in
// the form state graph.
func (s FormStatus) CanTransitionTo(next FormStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case FormStatusDraft:
		return next == FormStatusSubmitted
	case FormStatusSubmitted:
		return next == FormStatusUnderReview || next == FormStatusApproved ||
			next == FormStatusRejected || next == FormStatusDraft
	case FormStatusUnderReview:
		return next == FormStatusApproved || next == FormStatusRejected || next == FormStatusDraft
	default:
		return false
	}
}

// ServiceCode identifies one of the post-production services a company can
// declare on the questionnaire.
type ServiceCode string

const (
	ServiceADR             ServiceCode = "adr"
	ServiceMusicalScoring  ServiceCode = "musical_scoring"
	ServiceSoundDesign     ServiceCode = "sound_design"
	ServiceAudioEditing    ServiceCode = "audio_editing"
	ServiceMusicResearch   ServiceCode = "music_research"
	ServiceMusicClearance  ServiceCode = "music_clearance"
	ServiceMusicCreation   ServiceCode = "music_creation"
	ServiceVideoEditing    ServiceCode = "video_editing"
	ServiceColorCorrection ServiceCode = "color_correction"
	ServiceCompositing     ServiceCode = "compositing"
	Service2DAnimation     ServiceCode = "2d_animation"
	Service3DAnimation     ServiceCode = "3d_animation"
	ServiceSpecialEffects  ServiceCode = "special_effects"
)

var knownServiceCodes = map[ServiceCode]bool{
	ServiceADR: true, ServiceMusicalScoring: true, ServiceSoundDesign: true,
	ServiceAudioEditing: true, ServiceMusicResearch: true, ServiceMusicClearance: true,
	ServiceMusicCreation: true, ServiceVideoEditing: true, ServiceColorCorrection: true,
	ServiceCompositing: true, Service2DAnimation: true, Service3DAnimation: true,
	ServiceSpecialEffects: true,
}

// Valid reports whether the code is part of the questionnaire catalogue.
func (c ServiceCode) Valid() bool {
	return knownServiceCodes[c]
}

// FacilityFormat is an output format the facility can deliver.
type FacilityFormat string

const (
	Format4K23976 FacilityFormat = "4k_23976"
	Format4K2997  FacilityFormat = "4k_2997"
	Format2K23976 FacilityFormat = "2k_23976"
	Format2K2997  FacilityFormat = "2k_2997"
	FormatHD23976 FacilityFormat = "hd_23976"
	FormatHD2997  FacilityFormat = "hd_2997"
	FormatSD      FacilityFormat = "sd"
)

// SoftwareCategory distinguishes the three software lists on the form.
type SoftwareCategory string

const (
	SoftwareAudio    SoftwareCategory = "audio"
	SoftwareEditing  SoftwareCategory = "editing"
	SoftwareGraphics SoftwareCategory = "graphics"
)

// SoftwareEntry is one declared software installation.
type SoftwareEntry struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Licenses int    `json:"licenses"`
	IsFree   bool   `json:"is_free"`
}

// WorkstationFunctions marks which disciplines a workstation serves.
type WorkstationFunctions struct {
	Audio    bool `json:"audio"`
	Video    bool `json:"video"`
	Graphics bool `json:"graphics"`
}

// Workstation is one declared edit/audio/graphics machine.
type Workstation struct {
	MachineName       string               `json:"machine_name"`
	Functions         WorkstationFunctions `json:"functions"`
	DeviceModel       string               `json:"device_model"`
	OperatingSystem   string               `json:"operating_system"`
	Processor         string               `json:"processor"`
	GraphicsCard      string               `json:"graphics_card"`
	Memory            string               `json:"memory"`
	Monitor           string               `json:"monitor"`
	MonitorCalibrated string               `json:"monitor_calibrated"`
	IODevices         string               `json:"io_devices"`
	Speakers          string               `json:"speakers"`
	Headphones        string               `json:"headphones"`
}

// SharedStatus answers "are workstations shared across services?".
type SharedStatus string

const (
	SharedYes   SharedStatus = "yes"
	SharedNo    SharedStatus = "no"
	SharedMixed SharedStatus = "mixed"
)

// AccreditationForm is the workflow subject: one external questionnaire
// instance, addressable by its token. The token/password pair doubles as the
// external party's credential; the password is stored as a bcrypt hash only.
type AccreditationForm struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	FormToken        string `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	FormPasswordHash string `json:"-" gorm:"type:varchar(255);not null"`

	Status   FormStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	IsActive bool       `json:"is_active" gorm:"not null;default:true"`

	// RevisionCount tracks completed revision cycles. At most one revision
	// cycle is granted per form.
	RevisionCount int        `json:"revision_count" gorm:"not null;default:0"`
	UsedAt        *time.Time `json:"used_at"`

	// Company information
	CompanyName     string `json:"company_name" gorm:"type:varchar(200)"`
	ContactPerson   string `json:"contact_person" gorm:"type:varchar(100)"`
	ContactNumber   string `json:"contact_number" gorm:"type:varchar(20)"`
	ContactEmail    string `json:"contact_email" gorm:"type:varchar(120)"`
	BusinessAddress string `json:"business_address" gorm:"type:text"`
	BusinessEmail   string `json:"business_email" gorm:"type:varchar(120)"`

	// Questionnaire sections, stored as jsonb
	ServicesOffered    datatypes.JSONType[[]ServiceCode]    `json:"services_offered" gorm:"type:jsonb"`
	ServicesOther      string                               `json:"services_other" gorm:"type:varchar(500)"`
	FacilityFormats    datatypes.JSONType[[]FacilityFormat] `json:"facility_formats" gorm:"type:jsonb"`
	AudioSoftware      datatypes.JSONType[[]SoftwareEntry]  `json:"audio_software" gorm:"type:jsonb"`
	EditingSoftware    datatypes.JSONType[[]SoftwareEntry]  `json:"editing_software" gorm:"type:jsonb"`
	GraphicsSoftware   datatypes.JSONType[[]SoftwareEntry]  `json:"graphics_software" gorm:"type:jsonb"`
	WorkstationDetails datatypes.JSONType[[]Workstation]    `json:"workstation_details" gorm:"type:jsonb"`

	// Staff counts
	AudioEngineersCount  int `json:"audio_engineers_count" gorm:"not null;default:0"`
	VideoEditorsCount    int `json:"video_editors_count" gorm:"not null;default:0"`
	ColoristsCount       int `json:"colorists_count" gorm:"not null;default:0"`
	GraphicsArtistsCount int `json:"graphics_artists_count" gorm:"not null;default:0"`
	AnimatorsCount       int `json:"animators_count" gorm:"not null;default:0"`

	// Hardware
	TotalWorkstations  int          `json:"total_workstations" gorm:"not null;default:0"`
	WorkstationsShared SharedStatus `json:"workstations_shared" gorm:"type:varchar(10)"`

	// Certification block
	AccomplishedBy string `json:"accomplished_by" gorm:"type:varchar(100)"`
	Designation    string `json:"designation" gorm:"type:varchar(100)"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"type:uuid;not null;index"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at"`

	Attachments []FormAttachment `json:"attachments,omitempty" gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	Approvals   []Approval       `json:"approvals,omitempty" gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name
func (AccreditationForm) TableName() string {
	return "accreditation_forms"
}

// Editable reports whether the external party may still write to the form.
func (f *AccreditationForm) Editable() bool {
	return f.Status == FormStatusDraft
}

// AttachmentType classifies what an uploaded file is evidence of.
const (
	AttachmentSignature     = "signature"
	AttachmentFloorPlan     = "floor_plan"
	AttachmentSoftwareProof = "software_proof"
)

// FormAttachment is a file uploaded alongside a form. Rows cascade with the
// owning form; a revision cycle never clears them.
type FormAttachment struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FormID uuid.UUID `json:"form_id" gorm:"type:uuid;not null;index"`

	Filename         string `json:"filename" gorm:"type:varchar(255);not null"`
	OriginalFilename string `json:"original_filename" gorm:"type:varchar(255);not null"`
	FilePath         string `json:"-" gorm:"type:varchar(500);not null"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `json:"mime_type" gorm:"type:varchar(100)"`

	AttachmentType     string `json:"attachment_type" gorm:"type:varchar(50);index"`
	AttachmentCategory string `json:"attachment_category" gorm:"type:varchar(50)"`
	Description        string `json:"description" gorm:"type:varchar(500)"`

	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name
func (FormAttachment) TableName() string {
	return "form_attachments"
}

// FormFilter carries list-query criteria for staff views.
type FormFilter struct {
	Status    FormStatus
	CreatedBy *uuid.UUID
	Search    string
	Limit     int
	Offset    int
}
