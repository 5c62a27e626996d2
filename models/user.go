package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user account can hold. Exactly one role per user; only
// managers and admins may change it.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleDeveloper = "developer"
	RoleClient    = "client"
)

// ValidRole reports whether r is one of the four known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleClient:
		return true
	}
	return false
}

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	Name  string `gorm:"not null" json:"name"`
	Phone string `json:"phone,omitempty"`

	// Role and tenancy. CompanyID links a client-role user to the
	// company they represent; staff accounts usually have none.
	Role      string `gorm:"not null;default:'developer';index" json:"role"`
	CompanyID *uint  `gorm:"index" json:"company_id,omitempty"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Company       *Company       `json:"company,omitempty"`
	AssignedTasks []Task         `gorm:"foreignKey:AssignedTo" json:"assigned_tasks,omitempty"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// RefreshToken stores issued refresh tokens so they can be revoked at logout
type RefreshToken struct {
	gorm.Model
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"not null;uniqueIndex" json:"-"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	// Relations
	User User `json:"-"`
}
