package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"visiondesk/models"
	"visiondesk/policy"
	"visiondesk/utils"
)

type RatingController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewRatingController(db *gorm.DB, logger *log.Logger) *RatingController {
	return &RatingController{DB: db, Logger: logger}
}

type ProjectRatingRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

type TaskRatingRequest struct {
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	RatingType string `json:"rating_type" validate:"omitempty,oneof=quality timeliness"`
	Comment    string `json:"comment" validate:"omitempty,max=2000"`
}

// RateProject records a client's rating of a project. A second
// submission from the same user updates the existing row in place; the
// upsert is a single ON CONFLICT statement so concurrent submissions
// cannot create duplicates.
func (rc *RatingController) RateProject(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var project models.Project
	if err := rc.DB.First(&project, id).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	if !policy.CanCreateProjectRating(caller, &project) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only clients of the owning company may rate a project",
		})
	}

	var req ProjectRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	rating := models.ProjectRating{
		ProjectID: project.ID,
		UserID:    caller.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := rc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(&rating).Error; err != nil {
		rc.Logger.Printf("Failed to upsert project rating: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save rating", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(rating)
}

// GetProjectRatings lists ratings for a project visible to the caller.
func (rc *RatingController) GetProjectRatings(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var project models.Project
	if err := rc.DB.First(&project, id).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	ok, err := policy.CanViewProject(rc.DB, caller, &project)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check project access", nil)
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	var ratings []models.ProjectRating
	if err := rc.DB.Where("project_id = ?", project.ID).Order("id").Find(&ratings).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list ratings", nil)
	}

	var average float64
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r.Rating
		}
		average = float64(sum) / float64(len(ratings))
	}

	return c.JSON(fiber.Map{
		"ratings": ratings,
		"average": average,
	})
}

type AmendRatingRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// UpdateProjectRating amends an existing rating: the owner or staff.
func (rc *RatingController) UpdateProjectRating(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	ratingID, err := c.ParamsInt("ratingID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rating ID", nil)
	}
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var rating models.ProjectRating
	if err := rc.DB.Where("id = ? AND project_id = ?", ratingID, projectID).First(&rating).Error; err != nil {
		return notFoundOrError(c, err, "Rating")
	}

	if !policy.CanModifyProjectRating(caller, &rating) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	var req AmendRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	updates := map[string]interface{}{}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = *req.Comment
	}
	if len(updates) > 0 {
		if err := rc.DB.Model(&rating).Updates(updates).Error; err != nil {
			rc.Logger.Printf("Failed to update project rating %d: %v", rating.ID, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update rating", nil)
		}
	}
	return c.JSON(rating)
}

// DeleteProjectRating removes a rating: the owner or staff.
func (rc *RatingController) DeleteProjectRating(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	ratingID, err := c.ParamsInt("ratingID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rating ID", nil)
	}
	projectID, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var rating models.ProjectRating
	if err := rc.DB.Where("id = ? AND project_id = ?", ratingID, projectID).First(&rating).Error; err != nil {
		return notFoundOrError(c, err, "Rating")
	}

	if !policy.CanModifyProjectRating(caller, &rating) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	if err := rc.DB.Delete(&rating).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete rating", nil)
	}
	return c.JSON(fiber.Map{"message": "Rating deleted successfully"})
}

// RateTask records a client's typed rating of a task, upserted on
// (task, user, rating_type).
func (rc *RatingController) RateTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}

	var task models.Task
	if err := rc.DB.First(&task, id).Error; err != nil {
		return notFoundOrError(c, err, "Task")
	}
	var project models.Project
	if err := rc.DB.First(&project, task.ProjectID).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	if !policy.CanCreateTaskRating(caller, project.ClientCompanyID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only clients of the owning company may rate a task",
		})
	}

	var req TaskRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	ratingType := req.RatingType
	if ratingType == "" {
		ratingType = models.RatingQuality
	}

	rating := models.TaskRating{
		TaskID:     task.ID,
		UserID:     caller.ID,
		RatingType: ratingType,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := rc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}, {Name: "rating_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(&rating).Error; err != nil {
		rc.Logger.Printf("Failed to upsert task rating: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save rating", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(rating)
}

// GetTaskRatings lists ratings for a task visible to the caller.
func (rc *RatingController) GetTaskRatings(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}

	var task models.Task
	if err := rc.DB.First(&task, id).Error; err != nil {
		return notFoundOrError(c, err, "Task")
	}

	ok, err := policy.CanViewTask(rc.DB, caller, &task)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check task access", nil)
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	var ratings []models.TaskRating
	if err := rc.DB.Where("task_id = ?", task.ID).Order("id").Find(&ratings).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list ratings", nil)
	}
	return c.JSON(ratings)
}

// UpdateTaskRating amends an existing task rating: the owner or staff.
// The rating type is fixed at creation.
func (rc *RatingController) UpdateTaskRating(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	ratingID, err := c.ParamsInt("ratingID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rating ID", nil)
	}
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}

	var rating models.TaskRating
	if err := rc.DB.Where("id = ? AND task_id = ?", ratingID, taskID).First(&rating).Error; err != nil {
		return notFoundOrError(c, err, "Rating")
	}

	if !policy.CanModifyTaskRating(caller, &rating) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	var req AmendRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	updates := map[string]interface{}{}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = *req.Comment
	}
	if len(updates) > 0 {
		if err := rc.DB.Model(&rating).Updates(updates).Error; err != nil {
			rc.Logger.Printf("Failed to update task rating %d: %v", rating.ID, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update rating", nil)
		}
	}
	return c.JSON(rating)
}

// DeleteTaskRating removes a task rating: the owner or staff.
func (rc *RatingController) DeleteTaskRating(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	ratingID, err := c.ParamsInt("ratingID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rating ID", nil)
	}
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}

	var rating models.TaskRating
	if err := rc.DB.Where("id = ? AND task_id = ?", ratingID, taskID).First(&rating).Error; err != nil {
		return notFoundOrError(c, err, "Rating")
	}

	if !policy.CanModifyTaskRating(caller, &rating) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	if err := rc.DB.Delete(&rating).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete rating", nil)
	}
	return c.JSON(fiber.Map{"message": "Rating deleted successfully"})
}
