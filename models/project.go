package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses
const (
	ProjectPending    = "pending"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
	ProjectOnHold     = "on_hold"
)

// Deadline classifications used by dashboards and the reminder worker.
const (
	DeadlineNone     = "none"
	DeadlineUpcoming = "upcoming"
	DeadlineDueToday = "due_today"
	DeadlineOverdue  = "overdue"
)

// Project is a unit of work commissioned by a client company.
// ClientCompanyID determines which client-role users may view it;
// AdminID records the staff member who created it.
type Project struct {
	gorm.Model

	Name            string     `gorm:"not null" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	ClientCompanyID uint       `gorm:"not null;index" json:"client_company_id"`
	AdminID         uint       `gorm:"not null;index" json:"admin_id"`
	Status          string     `gorm:"not null;default:'pending'" json:"status"`
	Deadline        *time.Time `json:"deadline,omitempty"`

	// Path of the attached document on disk, if any
	DocumentPath *string `json:"document_path,omitempty"`

	// Relations
	ClientCompany Company         `gorm:"foreignKey:ClientCompanyID" json:"-"`
	Tasks         []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
	Ratings       []ProjectRating `gorm:"foreignKey:ProjectID" json:"ratings,omitempty"`
}

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectPending, ProjectInProgress, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// DeadlineStatus classifies the project deadline relative to now.
func (p *Project) DeadlineStatus(now time.Time) string {
	return classifyDeadline(p.Deadline, now)
}

// classifyDeadline buckets a deadline into none/upcoming/due_today/overdue
// by calendar day in the local timezone of now.
func classifyDeadline(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return DeadlineNone
	}
	dy, dm, dd := deadline.Date()
	ny, nm, nd := now.Date()
	due := time.Date(dy, dm, dd, 0, 0, 0, 0, now.Location())
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location())
	switch {
	case due.Before(today):
		return DeadlineOverdue
	case due.Equal(today):
		return DeadlineDueToday
	default:
		return DeadlineUpcoming
	}
}
