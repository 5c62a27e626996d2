package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"visiondesk/models"
	"visiondesk/utils"
)

// ReminderWorker emails assignees about tasks that are due today or
// overdue and still unfinished. A task is reminded at most once per
// reminder interval, tracked via reminder_sent_at.
type ReminderWorker struct {
	DB       *gorm.DB
	Mailer   *utils.Mailer
	Logger   *logrus.Logger
	Interval time.Duration
}

func NewReminderWorker(db *gorm.DB, mailer *utils.Mailer, logger *logrus.Logger) *ReminderWorker {
	return &ReminderWorker{
		DB:       db,
		Mailer:   mailer,
		Logger:   logger,
		Interval: time.Hour,
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	rw.Logger.Info("Reminder worker started")

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Info("Reminder worker shutting down...")
			return
		case <-ticker.C:
			rw.processDueTasks()
		}
	}
}

func (rw *ReminderWorker) processDueTasks() {
	now := time.Now()
	cutoff := now.Add(-24 * time.Hour)

	var tasks []models.Task
	err := rw.DB.
		Where("deadline IS NOT NULL AND deadline < ?", endOfDay(now)).
		Where("status <> ?", models.TaskDone).
		Where("reminder_sent_at IS NULL OR reminder_sent_at < ?", cutoff).
		Find(&tasks).Error
	if err != nil {
		rw.Logger.WithError(err).Error("Failed to fetch due tasks")
		return
	}

	for i := range tasks {
		if err := rw.remind(&tasks[i], now); err != nil {
			rw.Logger.WithError(err).WithField("task_id", tasks[i].ID).Error("Failed to send reminder")
		}
	}
}

func (rw *ReminderWorker) remind(task *models.Task, now time.Time) error {
	var assignee models.User
	if err := rw.DB.First(&assignee, task.AssignedTo).Error; err != nil {
		return err
	}

	state := task.DeadlineStatus(now)
	if state != models.DeadlineDueToday && state != models.DeadlineOverdue {
		return nil
	}

	if rw.Mailer.Enabled() {
		err := rw.Mailer.SendDeadlineReminder(
			assignee.Email, assignee.Name, task.Title, state,
			*task.Deadline, task.ProgressPercentage,
		)
		if err != nil {
			return err
		}
	}

	return rw.DB.Model(task).Update("reminder_sent_at", now).Error
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
