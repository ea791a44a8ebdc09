package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the reviewer decision state on the current approval.
type ApprovalStatus string

const (
	ApprovalPending       ApprovalStatus = "pending"
	ApprovalApproved      ApprovalStatus = "approved"
	ApprovalRejected      ApprovalStatus = "rejected"
	ApprovalNeedsRevision ApprovalStatus = "needs_revision"
)

// ApprovalAction is a reviewer decision request.
type ApprovalAction string

const (
	ActionApprove       ApprovalAction = "approve"
	ActionReject        ApprovalAction = "reject"
	ActionNeedsRevision ApprovalAction = "needs_revision"
)

// Valid reports whether the action is one of the three decisions.
func (a ApprovalAction) Valid() bool {
	return a == ActionApprove || a == ActionReject || a == ActionNeedsRevision
}

// Approval is the live decision record for a form. Exactly one approval per
// form carries IsCurrent=true; that row is mutated in place on each decision
// while ApprovalHistory keeps the trail.
type Approval struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FormID     uuid.UUID `json:"form_id" gorm:"type:uuid;not null;index"`
	ApproverID uuid.UUID `json:"approver_id" gorm:"type:uuid;not null;index"`

	Status ApprovalStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`

	// Comments are shown to the external party; internal notes are staff-only.
	Comments      string `json:"comments" gorm:"type:text"`
	InternalNotes string `json:"-" gorm:"type:text"`

	IsCurrent     bool `json:"is_current" gorm:"not null;default:true;index"`
	ApprovalLevel int  `json:"approval_level" gorm:"not null;default:1"` // reserved for multi-stage approval

	AssignedAt time.Time  `json:"assigned_at" gorm:"autoCreateTime"`
	ReviewedAt *time.Time `json:"reviewed_at"`
}

// TableName specifies the table name
func (Approval) TableName() string {
	return "approvals"
}

// Completed reports whether the approval reached a terminal decision.
func (a *Approval) Completed() bool {
	return a.Status == ApprovalApproved || a.Status == ApprovalRejected
}

// HistoryAction tags an ApprovalHistory row.
type HistoryAction string

const (
	HistoryAssigned          HistoryAction = "assigned"
	HistoryApproved          HistoryAction = "approved"
	HistoryRejected          HistoryAction = "rejected"
	HistoryRevisionRequested HistoryAction = "revision_requested"
)

// ApprovalHistory is the append-only trail of decision transitions for a
// form. Rows are written in the same transaction as the decision itself.
type ApprovalHistory struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FormID     uuid.UUID `json:"form_id" gorm:"type:uuid;not null;index"`
	ApproverID uuid.UUID `json:"approver_id" gorm:"type:uuid;not null"`

	Action         HistoryAction `json:"action" gorm:"type:varchar(30);not null"`
	PreviousStatus FormStatus    `json:"previous_status" gorm:"type:varchar(20)"`
	NewStatus      FormStatus    `json:"new_status" gorm:"type:varchar(20)"`

	Comments      string `json:"comments" gorm:"type:text"`
	InternalNotes string `json:"-" gorm:"type:text"`

	ActionAt time.Time `json:"action_at" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name
func (ApprovalHistory) TableName() string {
	return "approval_history"
}
