package models

import "gorm.io/gorm"

// Task rating types
const (
	RatingQuality    = "quality"
	RatingTimeliness = "timeliness"
)

// ProjectRating is a 1-5 star rating a client leaves on a project.
// One rating per (project, user); resubmission updates in place.
type ProjectRating struct {
	gorm.Model

	ProjectID uint   `gorm:"not null;uniqueIndex:idx_project_rater" json:"project_id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_project_rater" json:"user_id"`
	Rating    int    `gorm:"not null" json:"rating"`
	Comment   string `gorm:"type:text" json:"comment,omitempty"`

	// Relations
	Project Project `json:"-"`
	User    User    `json:"-"`
}

// TaskRating is a 1-5 star rating a client leaves on a task, typed so a
// task can be rated separately for quality and timeliness. One rating
// per (task, user, rating_type); resubmission updates in place.
type TaskRating struct {
	gorm.Model

	TaskID     uint   `gorm:"not null;uniqueIndex:idx_task_rater_type" json:"task_id"`
	UserID     uint   `gorm:"not null;uniqueIndex:idx_task_rater_type" json:"user_id"`
	RatingType string `gorm:"not null;default:'quality';uniqueIndex:idx_task_rater_type" json:"rating_type"`
	Rating     int    `gorm:"not null" json:"rating"`
	Comment    string `gorm:"type:text" json:"comment,omitempty"`

	// Relations
	Task Task `json:"-"`
	User User `json:"-"`
}

// ValidRatingType reports whether rt is a known task rating type.
func ValidRatingType(rt string) bool {
	return rt == RatingQuality || rt == RatingTimeliness
}
