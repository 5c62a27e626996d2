package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "visiondesk/controllers"
	"visiondesk/middleware"
	"visiondesk/models"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", middleware.LoginRateLimiter(), controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, hub *controller.EventHub, uploadDir string) {
	userController := controller.NewUserController(db, log.New(os.Stdout, "USER: ", log.LstdFlags))
	companyController := controller.NewCompanyController(db, log.New(os.Stdout, "COMPANY: ", log.LstdFlags))
	projectController := controller.NewProjectController(db, log.New(os.Stdout, "PROJECT: ", log.LstdFlags), uploadDir)
	taskController := controller.NewTaskController(db, log.New(os.Stdout, "TASK: ", log.LstdFlags), hub)
	ratingController := controller.NewRatingController(db, log.New(os.Stdout, "RATING: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Dashboard routes
	api.Get("/dashboard", dashboardController.GetDashboard)

	// User routes
	user := api.Group("/users")
	user.Get("/", staffOnly, userController.GetUsers)
	user.Post("/", adminOnly, userController.CreateUser)
	user.Get("/:id", userController.GetUser)
	user.Put("/:id", userController.UpdateUser)
	user.Delete("/:id", staffOnly, userController.DeleteUser)

	// Company routes
	company := api.Group("/companies")
	company.Get("/", staffOnly, companyController.GetCompanies)
	company.Post("/", adminOnly, companyController.CreateCompany)
	company.Get("/:id", companyController.GetCompany)
	company.Put("/:id", adminOnly, companyController.UpdateCompany)
	company.Delete("/:id", adminOnly, companyController.DeleteCompany)

	// Project routes
	project := api.Group("/projects")
	project.Get("/", projectController.GetProjects)
	project.Post("/", staffOnly, projectController.CreateProject)
	project.Get("/:id", projectController.GetProject)
	project.Put("/:id", staffOnly, projectController.UpdateProject)
	project.Delete("/:id", staffOnly, projectController.DeleteProject)
	project.Post("/:id/document", staffOnly, projectController.UploadDocument)
	project.Get("/:id/document", projectController.GetDocument)
	project.Post("/:id/ratings", ratingController.RateProject)
	project.Get("/:id/ratings", ratingController.GetProjectRatings)
	project.Put("/:id/ratings/:ratingID", ratingController.UpdateProjectRating)
	project.Delete("/:id/ratings/:ratingID", ratingController.DeleteProjectRating)

	// Task routes
	task := api.Group("/tasks")
	task.Get("/", taskController.GetTasks)
	task.Post("/", staffOnly, taskController.CreateTask)
	task.Get("/:id", taskController.GetTask)
	task.Put("/:id", taskController.UpdateTask)
	task.Delete("/:id", staffOnly, taskController.DeleteTask)
	task.Get("/:id/subtasks", taskController.GetSubTasks)
	task.Post("/:id/subtasks", taskController.CreateSubTask)
	task.Put("/:id/subtasks/:subtaskID", taskController.UpdateSubTask)
	task.Delete("/:id/subtasks/:subtaskID", taskController.DeleteSubTask)
	task.Post("/:id/ratings", ratingController.RateTask)
	task.Get("/:id/ratings", ratingController.GetTaskRatings)
	task.Put("/:id/ratings/:ratingID", ratingController.UpdateTaskRating)
	task.Delete("/:id/ratings/:ratingID", ratingController.DeleteTaskRating)

	// WebSocket route for live task events
	app.Get("/api/v1/events", websocket.New(hub.HandleTaskEventsWS))
}

func SetupRoutes(app *fiber.App, db *gorm.DB, hub *controller.EventHub, uploadDir string) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db, hub, uploadDir)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
