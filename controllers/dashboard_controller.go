package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"visiondesk/models"
	"visiondesk/policy"
	"visiondesk/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{DB: db, Logger: logger}
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GetDashboard summarizes the caller's slice of the system: project and
// task counts by status, deadline buckets, and average project rating.
// Every aggregate runs through the same visibility scopes as the list
// endpoints, so a client's dashboard never leaks other companies' work.
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))

	var projectCounts []statusCount
	if err := dc.DB.Model(&models.Project{}).
		Scopes(policy.ProjectsVisibleTo(caller)).
		Select("projects.status AS status, COUNT(*) AS count").
		Group("projects.status").
		Scan(&projectCounts).Error; err != nil {
		dc.Logger.Printf("Failed to aggregate projects: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build dashboard", nil)
	}

	var taskCounts []statusCount
	if err := dc.DB.Model(&models.Task{}).
		Scopes(policy.TasksVisibleTo(caller)).
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&taskCounts).Error; err != nil {
		dc.Logger.Printf("Failed to aggregate tasks: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build dashboard", nil)
	}

	var tasks []models.Task
	if err := dc.DB.Scopes(policy.TasksVisibleTo(caller)).
		Where("tasks.status <> ?", models.TaskDone).
		Find(&tasks).Error; err != nil {
		dc.Logger.Printf("Failed to load open tasks: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build dashboard", nil)
	}

	now := time.Now()
	deadlines := map[string]int{
		models.DeadlineUpcoming: 0,
		models.DeadlineDueToday: 0,
		models.DeadlineOverdue:  0,
	}
	for i := range tasks {
		state := tasks[i].DeadlineStatus(now)
		if state != models.DeadlineNone {
			deadlines[state]++
		}
	}

	var avgRating *float64
	row := dc.DB.Model(&models.ProjectRating{}).
		Joins("JOIN projects ON projects.id = project_ratings.project_id AND projects.deleted_at IS NULL").
		Scopes(policy.ProjectsVisibleTo(caller)).
		Select("AVG(project_ratings.rating)").
		Row()
	if err := row.Scan(&avgRating); err != nil {
		dc.Logger.Printf("Failed to average ratings: %v", err)
	}

	out := fiber.Map{
		"role":           caller.Role,
		"projects":       projectCounts,
		"tasks":          taskCounts,
		"task_deadlines": deadlines,
	}
	if avgRating != nil {
		out["average_project_rating"] = *avgRating
	}
	return c.JSON(out)
}
