package models

import "gorm.io/gorm"

// Company is a client organization. It owns zero or more client-role
// users and zero or more projects.
type Company struct {
	gorm.Model

	Name         string `gorm:"not null;uniqueIndex" json:"name"`
	ContactEmail string `gorm:"not null" json:"contact_email"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`

	// Relations
	Users    []User    `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
	Projects []Project `gorm:"foreignKey:ClientCompanyID" json:"projects,omitempty"`
}
