package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserRole is the single privilege level assigned to a staff account.
type UserRole string

const (
	RoleAdministrator UserRole = "administrator"
	RoleManager       UserRole = "manager"
	RoleApprover      UserRole = "approver"
	RoleViewer        UserRole = "viewer"
)

// roleLevels is the total order of privilege used by every authorization
// check in the service. There is deliberately no second mechanism.
var roleLevels = map[UserRole]int{
	RoleAdministrator: 4,
	RoleManager:       3,
	RoleApprover:      2,
	RoleViewer:        1,
}

// Level returns the numeric privilege level of a role. Unknown roles rank
// below viewer so a corrupted row can never satisfy a check.
func (r UserRole) Level() int {
	return roleLevels[r]
}

// Valid reports whether the role is one of the four known roles.
func (r UserRole) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AllRoles returns the known roles ordered by descending privilege.
func AllRoles() []UserRole {
	return []UserRole{RoleAdministrator, RoleManager, RoleApprover, RoleViewer}
}

// CanAccess reports whether a holder of role may access a resource gated by
// requiredRoles. Access is granted iff the holder's level is at least the
// maximum level among the required roles.
func CanAccess(role UserRole, requiredRoles ...UserRole) bool {
	if len(requiredRoles) == 0 {
		return false
	}
	max := 0
	for _, r := range requiredRoles {
		if lvl := r.Level(); lvl > max {
			max = lvl
		}
	}
	return role.Level() >= max && max > 0
}

// User is a staff account. Accounts are soft-deactivated via IsActive and
// never hard-deleted so audit rows keep a resolvable actor.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string    `json:"username" gorm:"type:varchar(80);uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(80);not null"`
	LastName     string    `json:"last_name" gorm:"type:varchar(80);not null"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'viewer';index"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`

	// 2FA
	TOTPSecret       string         `json:"-" gorm:"type:varchar(64)"`
	TwoFactorEnabled bool           `json:"two_factor_enabled" gorm:"not null;default:false"`
	BackupCodes      datatypes.JSON `json:"-" gorm:"type:jsonb"` // bcrypt hashes, consumed one by one

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// FullName returns the display name used in audit descriptions and exports.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CanAccess reports whether the user may access a resource gated by the
// given roles. Inactive accounts never pass.
func (u *User) CanAccess(requiredRoles ...UserRole) bool {
	if !u.IsActive {
		return false
	}
	return CanAccess(u.Role, requiredRoles...)
}
