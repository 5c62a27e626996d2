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

type TaskController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Hub    *EventHub
}

func NewTaskController(db *gorm.DB, logger *log.Logger, hub *EventHub) *TaskController {
	return &TaskController{DB: db, Logger: logger, Hub: hub}
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	ProjectID   uint       `json:"project_id" validate:"required"`
	AssignedTo  uint       `json:"assigned_to" validate:"required"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateTaskRequest struct {
	Title              *string    `json:"title" validate:"omitempty,max=200"`
	Description        *string    `json:"description" validate:"omitempty,max=5000"`
	AssignedTo         *uint      `json:"assigned_to"`
	Status             *string    `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	Priority           *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	ProgressPercentage *int       `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
	Deadline           *time.Time `json:"deadline"`
}

type SubTaskRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Status   string `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	Approved *bool  `json:"approved"`
}

type UpdateSubTaskRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Status   *string `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	Approved *bool   `json:"approved"`
}

// GetTasks lists the tasks visible to the caller: staff see all,
// developers their assigned tasks, clients their company's tasks.
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))

	query := tc.DB.Scopes(policy.TasksVisibleTo(caller)).Order("tasks.id")
	if projectID := c.QueryInt("project_id"); projectID > 0 {
		query = query.Where("tasks.project_id = ?", projectID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("tasks.status = ?", status)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		tc.Logger.Printf("Failed to list tasks: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tasks", nil)
	}
	return c.JSON(tasks)
}

// GetTask returns one task with its sub-tasks.
func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}

	var task models.Task
	if err := tc.DB.Preload("SubTasks").First(&task, id).Error; err != nil {
		return notFoundOrError(c, err, "Task")
	}

	ok, err := policy.CanViewTask(tc.DB, caller, &task)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check task access", nil)
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	return c.JSON(fiber.Map{
		"task":            task,
		"deadline_status": task.DeadlineStatus(time.Now()),
	})
}

// CreateTask creates a task inside a project. Staff only.
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	if !policy.CanCreateTask(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only managers and admins may create tasks",
		})
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var project models.Project
	if err := tc.DB.First(&project, req.ProjectID).Error; err != nil {
		return notFoundOrError(c, err, "Project")
	}
	var assignee models.User
	if err := tc.DB.First(&assignee, req.AssignedTo).Error; err != nil {
		return notFoundOrError(c, err, "Assignee")
	}

	status := req.Status
	if status == "" {
		status = models.TaskTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		AssignedTo:  req.AssignedTo,
		Status:      status,
		Priority:    priority,
		Deadline:    req.Deadline,
	}
	if err := tc.DB.Create(&task).Error; err != nil {
		tc.Logger.Printf("Failed to create task: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create task", nil)
	}

	tc.Hub.Publish(TaskEvent{
		Type:      "task_created",
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		Status:    task.Status,
	})

	return c.Status(fiber.StatusCreated).JSON(task)
}

// UpdateTask mutates a task. Staff may change any field; the assigned
// developer may move status and progress only and gets a forbidden
// answer for anything else, including tasks assigned to someone else.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}

	var task models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return notFoundOrError(c, err, "Task")
	}

	scope := policy.TaskUpdate(caller, &task)
	if scope == policy.TaskUpdateNone {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if scope == policy.TaskUpdateProgress {
		if req.Title != nil || req.Description != nil || req.AssignedTo != nil ||
			req.Priority != nil || req.Deadline != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Developers may only update task status and progress",
			})
		}
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AssignedTo != nil {
		var assignee models.User
		if err := tc.DB.First(&assignee, *req.AssignedTo).Error; err != nil {
			return notFoundOrError(c, err, "Assignee")
		}
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.ProgressPercentage != nil {
		updates["progress_percentage"] = *req.ProgressPercentage
	}
	if req.Deadline != nil {
		updates["deadline"] = req.Deadline
	}

	if len(updates) > 0 {
		if err := tc.DB.Model(&task).Updates(updates).Error; err != nil {
			tc.Logger.Printf("Failed to update task %d: %v", task.ID, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update task", nil)
		}
		tc.Hub.Publish(TaskEvent{
			Type:      "task_updated",
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			Status:    task.Status,
			Progress:  task.ProgressPercentage,
		})
	}

	return c.JSON(task)
}

// DeleteTask removes a task and its children. Staff only.
func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}

	var task models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return notFoundOrError(c, err, "Task")
	}

	if !policy.CanDeleteTask(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only managers and admins may delete tasks",
		})
	}

	tx := tc.DB.Begin()
	if err := tx.Where("task_id = ?", task.ID).Delete(&models.SubTask{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete sub-tasks", nil)
	}
	if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskRating{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete task ratings", nil)
	}
	if err := tx.Delete(&task).Error; err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to delete task %d: %v", task.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete task", nil)
	}
	if err := tx.Commit().Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to complete deletion", nil)
	}

	tc.Hub.Publish(TaskEvent{
		Type:      "task_deleted",
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
	})

	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}

// ---- Sub-tasks: reads follow task visibility, writes follow the
// parent task's mutation rule. ----

// GetSubTasks lists a task's sub-tasks.
func (tc *TaskController) GetSubTasks(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	task, ok := tc.visibleParent(c, caller)
	if !ok {
		return nil
	}

	var subTasks []models.SubTask
	if err := tc.DB.Where("task_id = ?", task.ID).Order("id").Find(&subTasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list sub-tasks", nil)
	}
	return c.JSON(subTasks)
}

// CreateSubTask adds a sub-task under a task.
func (tc *TaskController) CreateSubTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	task, ok := tc.mutableParent(c, caller)
	if !ok {
		return nil
	}

	var req SubTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	status := req.Status
	if status == "" {
		status = models.TaskTodo
	}

	subTask := models.SubTask{
		TaskID:    task.ID,
		Title:     req.Title,
		Status:    status,
		CreatedBy: caller.ID,
	}
	if req.Approved != nil {
		subTask.Approved = *req.Approved
	}
	if err := tc.DB.Create(&subTask).Error; err != nil {
		tc.Logger.Printf("Failed to create sub-task: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create sub-task", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(subTask)
}

// UpdateSubTask mutates a sub-task.
func (tc *TaskController) UpdateSubTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	task, ok := tc.mutableParent(c, caller)
	if !ok {
		return nil
	}

	subTaskID, err := c.ParamsInt("subtaskID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid sub-task ID", nil)
	}

	var subTask models.SubTask
	if err := tc.DB.Where("id = ? AND task_id = ?", subTaskID, task.ID).First(&subTask).Error; err != nil {
		return notFoundOrError(c, err, "Sub-task")
	}

	var req UpdateSubTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Approved != nil {
		updates["approved"] = *req.Approved
	}
	if len(updates) > 0 {
		if err := tc.DB.Model(&subTask).Updates(updates).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update sub-task", nil)
		}
	}

	return c.JSON(subTask)
}

// DeleteSubTask removes a sub-task.
func (tc *TaskController) DeleteSubTask(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	task, ok := tc.mutableParent(c, caller)
	if !ok {
		return nil
	}

	subTaskID, err := c.ParamsInt("subtaskID")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid sub-task ID", nil)
	}

	var subTask models.SubTask
	if err := tc.DB.Where("id = ? AND task_id = ?", subTaskID, task.ID).First(&subTask).Error; err != nil {
		return notFoundOrError(c, err, "Sub-task")
	}

	if err := tc.DB.Delete(&subTask).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete sub-task", nil)
	}
	return c.JSON(fiber.Map{"message": "Sub-task deleted successfully"})
}

// visibleParent loads the parent task from the :id param and enforces
// read visibility. On failure it writes the response and returns false.
func (tc *TaskController) visibleParent(c *fiber.Ctx, caller policy.Caller) (*models.Task, bool) {
	id, err := c.ParamsInt("id")
	if err != nil {
		_ = utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
		return nil, false
	}

	var task models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		_ = notFoundOrError(c, err, "Task")
		return nil, false
	}

	ok, err := policy.CanViewTask(tc.DB, caller, &task)
	if err != nil {
		_ = utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check task access", nil)
		return nil, false
	}
	if !ok {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
		return nil, false
	}
	return &task, true
}

// mutableParent loads the parent task and enforces the inherited
// mutation rule for sub-task writes.
func (tc *TaskController) mutableParent(c *fiber.Ctx, caller policy.Caller) (*models.Task, bool) {
	id, err := c.ParamsInt("id")
	if err != nil {
		_ = utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
		return nil, false
	}

	var task models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		_ = notFoundOrError(c, err, "Task")
		return nil, false
	}

	if !policy.CanMutateSubTask(caller, &task) {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
		return nil, false
	}
	return &task, true
}
