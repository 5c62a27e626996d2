package controller

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"visiondesk/models"
	"visiondesk/policy"
	"visiondesk/utils"
)

type ProjectController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	UploadDir string
}

func NewProjectController(db *gorm.DB, logger *log.Logger, uploadDir string) *ProjectController {
	return &ProjectController{DB: db, Logger: logger, UploadDir: uploadDir}
}

type CreateProjectRequest struct {
	Name            string     `json:"name" validate:"required,max=200"`
	Description     string     `json:"description" validate:"omitempty,max=5000"`
	ClientCompanyID uint       `json:"client_company_id" validate:"required"`
	Status          string     `json:"status" validate:"omitempty,oneof=pending in_progress completed on_hold"`
	Deadline        *time.Time `json:"deadline"`
}

type UpdateProjectRequest struct {
	Name            *string    `json:"name" validate:"omitempty,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=5000"`
	ClientCompanyID *uint      `json:"client_company_id"`
	Status          *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed on_hold"`
	Deadline        *time.Time `json:"deadline"`
}

// GetProjects lists the projects visible to the caller: staff see all,
// clients their company's projects, developers the projects they have
// a task on. Narrowing happens in the WHERE clause.
func (pc *ProjectController) GetProjects(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))

	query := pc.DB.Scopes(policy.ProjectsVisibleTo(caller)).Order("projects.id")
	if status := c.Query("status"); status != "" {
		query = query.Where("projects.status = ?", status)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		pc.Logger.Printf("Failed to list projects: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list projects", nil)
	}
	return c.JSON(projects)
}

// GetProject returns one project. Existence is checked before
// visibility so a missing id and a hidden row answer differently.
func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	// The task relation is narrowed to what the caller may read, so a
	// developer's project payload never carries other assignees' tasks.
	var project models.Project
	if err := pc.DB.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Scopes(policy.TasksVisibleTo(caller)).Order("tasks.id")
	}).First(&project, id).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	ok, err := policy.CanViewProject(pc.DB, caller, &project)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check project access", nil)
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	return c.JSON(fiber.Map{
		"project":         project,
		"deadline_status": project.DeadlineStatus(time.Now()),
	})
}

// CreateProject creates a project for a client company. Staff only.
func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	if !policy.CanCreateProject(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only managers and admins may create projects",
		})
	}

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var company models.Company
	if err := pc.DB.First(&company, req.ClientCompanyID).Error; err != nil {
		return notFoundOrError(c, err, "Company")
	}

	status := req.Status
	if status == "" {
		status = models.ProjectPending
	}

	project := models.Project{
		Name:            req.Name,
		Description:     req.Description,
		ClientCompanyID: req.ClientCompanyID,
		AdminID:         caller.ID,
		Status:          status,
		Deadline:        req.Deadline,
	}
	if err := pc.DB.Create(&project).Error; err != nil {
		pc.Logger.Printf("Failed to create project: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create project", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

// UpdateProject mutates project fields. Staff only.
func (pc *ProjectController) UpdateProject(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	if !policy.CanUpdateProject(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only managers and admins may update projects",
		})
	}

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ClientCompanyID != nil {
		var company models.Company
		if err := pc.DB.First(&company, *req.ClientCompanyID).Error; err != nil {
			return notFoundOrError(c, err, "Company")
		}
		updates["client_company_id"] = *req.ClientCompanyID
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Deadline != nil {
		updates["deadline"] = req.Deadline
	}

	if len(updates) > 0 {
		if err := pc.DB.Model(&project).Updates(updates).Error; err != nil {
			pc.Logger.Printf("Failed to update project %d: %v", project.ID, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update project", nil)
		}
	}

	return c.JSON(project)
}

// DeleteProject removes a project. Staff only, and blocked while any
// task still references the project.
func (pc *ProjectController) DeleteProject(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	if !policy.CanDeleteProject(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only managers and admins may delete projects",
		})
	}

	blocked, err := policy.ProjectDeleteBlocked(pc.DB, project.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check project references", nil)
	}
	if blocked {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Project still has tasks and cannot be deleted",
		})
	}

	tx := pc.DB.Begin()
	if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectRating{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete project ratings", nil)
	}
	if err := tx.Delete(&project).Error; err != nil {
		tx.Rollback()
		pc.Logger.Printf("Failed to delete project %d: %v", project.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete project", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to complete deletion", nil)
	}

	return c.JSON(fiber.Map{"message": "Project deleted successfully"})
}

// UploadDocument attaches a document to a project. Staff only, same
// rule as project updates.
func (pc *ProjectController) UploadDocument(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	if !policy.CanUpdateProject(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only managers and admins may attach documents",
		})
	}

	file, err := c.FormFile("document")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "document file is required", nil)
	}

	if err := os.MkdirAll(pc.UploadDir, 0o755); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to prepare upload directory", nil)
	}

	filename := fmt.Sprintf("project-%d-%d%s", project.ID, time.Now().UnixNano(), filepath.Ext(file.Filename))
	dest := filepath.Join(pc.UploadDir, filename)
	if err := c.SaveFile(file, dest); err != nil {
		pc.Logger.Printf("Failed to save document for project %d: %v", project.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save document", nil)
	}

	if err := pc.DB.Model(&project).Update("document_path", dest).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record document", nil)
	}

	return c.JSON(fiber.Map{"message": "Document uploaded", "document_path": dest})
}

// GetDocument serves a project's attachment. Access requires project
// visibility or a task on the project.
func (pc *ProjectController) GetDocument(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid project ID", nil)
	}

	var project models.Project
	if err := pc.DB.First(&project, id).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}

	ok, err := policy.CanViewDocument(pc.DB, caller, &project)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check document access", nil)
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	if project.DocumentPath == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project has no document",
		})
	}
	return c.SendFile(*project.DocumentPath)
}
