package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline *time.Time
		want     string
	}{
		{"no deadline", nil, DeadlineNone},
		{"later today counts as due today", timePtr(time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)), DeadlineDueToday},
		{"earlier today still counts as due today", timePtr(time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)), DeadlineDueToday},
		{"tomorrow is upcoming", timePtr(time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)), DeadlineUpcoming},
		{"yesterday is overdue", timePtr(time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)), DeadlineOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{Deadline: tt.deadline}
			assert.Equal(t, tt.want, task.DeadlineStatus(now))

			project := Project{Deadline: tt.deadline}
			assert.Equal(t, tt.want, project.DeadlineStatus(now))
		})
	}
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidRole(RoleClient))
	assert.False(t, ValidRole("superuser"))

	assert.True(t, ValidProjectStatus(ProjectOnHold))
	assert.False(t, ValidProjectStatus("cancelled"))

	assert.True(t, ValidTaskStatus(TaskReview))
	assert.False(t, ValidTaskStatus("blocked"))

	assert.True(t, ValidTaskPriority(PriorityHigh))
	assert.False(t, ValidTaskPriority("urgent"))

	assert.True(t, ValidRatingType(RatingTimeliness))
	assert.False(t, ValidRatingType("style"))
}

func timePtr(t time.Time) *time.Time { return &t }
