package models

import "time"

// UserRole represents the role of a user
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents the user model in the database
type User struct {
	Base
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	Password  string   `gorm:"not null" json:"-"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `gorm:"not null;default:'user'" json:"role"`
	IsActive  bool     `gorm:"default:true" json:"is_active"`

	// Password reset. Only the SHA-256 digest of the reset token is stored;
	// both fields are set together and cleared together.
	ResetTokenHash   string     `gorm:"size:64" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Bills []Bill `gorm:"foreignKey:UserID" json:"bills,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
