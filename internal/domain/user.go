package domain

import "time"

// User roles
const (
	RoleStudent = "student"
	RoleAlumni  = "alumni"
	RoleAdmin   = "admin"
)

// User account statuses
const (
	UserStatusPending   = "pending"
	UserStatusApproved  = "approved"
	UserStatusSuspended = "suspended"
)

// User is the read model of the identity/directory collaborator.
// This core never creates or updates users; it only resolves them.
type User struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;size:100" json:"name"`
	Email      string    `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	Role       string    `gorm:"column:role;size:20;index" json:"role"`
	Status     string    `gorm:"column:status;size:20" json:"status"`
	Department string    `gorm:"column:department;size:100" json:"department,omitempty"`
	Company    string    `gorm:"column:company;size:100" json:"company,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "users" }

// IsApproved reports whether the account may participate in mentorship.
func (u *User) IsApproved() bool { return u.Status == UserStatusApproved }

// Principal is the authenticated caller, injected explicitly into every
// operation. Nothing in this core reads identity from ambient state.
type Principal struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// MentorProfile is a directory listing entry for an approved alumni.
type MentorProfile struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Company    string `json:"company,omitempty"`
}
