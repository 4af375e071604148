package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role is the access level attached to a staff record.
type Role string

const (
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleStaff      Role = "staff"
	RoleDeveloper  Role = "developer"
	RoleNone       Role = "none"

	// RoleAll addresses a notification to every signed-in user.
	RoleAll Role = "all"
)

var staffIDPattern = regexp.MustCompile(`^[0-9]{6}$`)

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleSupervisor, RoleStaff, RoleDeveloper:
		return true
	}
	return false
}

// Privileged reports whether r sits at the top of the role hierarchy. Only
// privileged roles approve requests and manage the directory.
func (r Role) Privileged() bool {
	return r == RoleManager || r == RoleDeveloper
}

// Actor is the already-authenticated caller of every workflow operation.
type Actor struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	StaffID string `json:"staff_id,omitempty"`
}

// User is a staff profile record in the directory.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	StaffID   string    `json:"staff_id" bson:"staff_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ValidStaffID reports whether id is a strict 6-digit staff identifier.
func ValidStaffID(id string) bool {
	return staffIDPattern.MatchString(id)
}

// LoginEmail derives the login address of a staff member from the staff id.
func LoginEmail(staffID, domainName string) string {
	return staffID + "@" + strings.TrimPrefix(domainName, "@")
}

// Credential is the login secret bound to a staff email.
type Credential struct {
	Email        string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}
