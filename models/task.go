package models

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskReview     = "review"
	TaskDone       = "done"
)

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a unit of work inside a project, assigned to one developer.
type Task struct {
	gorm.Model

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ProjectID   uint   `gorm:"not null;index" json:"project_id"`
	AssignedTo  uint   `gorm:"not null;index" json:"assigned_to"`

	Status             string     `gorm:"not null;default:'todo'" json:"status"`
	Priority           string     `gorm:"not null;default:'medium'" json:"priority"`
	ProgressPercentage int        `gorm:"default:0" json:"progress_percentage"`
	Deadline           *time.Time `json:"deadline,omitempty"`

	// Stamped by the reminder worker so the same deadline is not
	// nagged about more than once a day.
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	// Relations
	Project  Project      `json:"-"`
	Assignee User         `gorm:"foreignKey:AssignedTo" json:"-"`
	SubTasks []SubTask    `gorm:"foreignKey:TaskID" json:"sub_tasks,omitempty"`
	Ratings  []TaskRating `gorm:"foreignKey:TaskID" json:"ratings,omitempty"`
}

// SubTask is a child item of a task. It carries no access rule of its
// own: reads follow the parent task's visibility and writes follow the
// parent task's mutation rule.
type SubTask struct {
	gorm.Model

	TaskID    uint   `gorm:"not null;index" json:"task_id"`
	Title     string `gorm:"not null" json:"title"`
	Status    string `gorm:"not null;default:'todo'" json:"status"`
	Approved  bool   `gorm:"default:false" json:"approved"`
	CreatedBy uint   `gorm:"not null" json:"created_by"`

	// Relations
	Task Task `json:"-"`
}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskDone:
		return true
	}
	return false
}

// ValidTaskPriority reports whether p is a known priority.
func ValidTaskPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DeadlineStatus classifies the task deadline relative to now.
func (t *Task) DeadlineStatus(now time.Time) string {
	return classifyDeadline(t.Deadline, now)
}
