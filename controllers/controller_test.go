package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"visiondesk/config"
	"visiondesk/models"
)

var testLogger = log.New(io.Discard, "", 0)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))
	return db
}

// newApp wires the controllers against a fake authenticated user, the
// same route shapes the real router uses.
func newApp(db *gorm.DB, user *models.User) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", user)
		c.Locals("userID", user.ID)
		return c.Next()
	})

	userController := NewUserController(db, testLogger)
	companyController := NewCompanyController(db, testLogger)
	projectController := NewProjectController(db, testLogger, "/tmp/visiondesk-test-uploads")
	taskController := NewTaskController(db, testLogger, nil)
	ratingController := NewRatingController(db, testLogger)
	dashboardController := NewDashboardController(db, testLogger)

	app.Get("/dashboard", dashboardController.GetDashboard)

	app.Get("/users/:id", userController.GetUser)
	app.Delete("/users/:id", userController.DeleteUser)

	app.Delete("/companies/:id", companyController.DeleteCompany)

	app.Get("/projects", projectController.GetProjects)
	app.Get("/projects/:id", projectController.GetProject)
	app.Delete("/projects/:id", projectController.DeleteProject)
	app.Post("/projects/:id/ratings", ratingController.RateProject)
	app.Get("/projects/:id/ratings", ratingController.GetProjectRatings)
	app.Put("/projects/:id/ratings/:ratingID", ratingController.UpdateProjectRating)

	app.Get("/tasks", taskController.GetTasks)
	app.Get("/tasks/:id", taskController.GetTask)
	app.Put("/tasks/:id", taskController.UpdateTask)
	app.Post("/tasks/:id/subtasks", taskController.CreateSubTask)
	app.Put("/tasks/:id/subtasks/:subtaskID", taskController.UpdateSubTask)
	app.Post("/tasks/:id/ratings", ratingController.RateTask)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type world struct {
	companyA, companyB models.Company
	admin              models.User
	manager            models.User
	developer          models.User
	otherDeveloper     models.User
	clientA            models.User
	projectA, projectB models.Project
	taskA              models.Task
}

func seedWorld(t *testing.T, db *gorm.DB) world {
	t.Helper()
	var w world

	w.companyA = models.Company{Name: "Acme", ContactEmail: "ops@acme.test"}
	w.companyB = models.Company{Name: "Globex", ContactEmail: "ops@globex.test"}
	require.NoError(t, db.Create(&w.companyA).Error)
	require.NoError(t, db.Create(&w.companyB).Error)

	w.admin = models.User{Email: "admin@visiondesk.test", Name: "Admin", PasswordHash: "x", Role: models.RoleAdmin, IsActive: true}
	w.manager = models.User{Email: "manager@visiondesk.test", Name: "Manager", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
	w.developer = models.User{Email: "dev@visiondesk.test", Name: "Dev", PasswordHash: "x", Role: models.RoleDeveloper, IsActive: true}
	w.otherDeveloper = models.User{Email: "dev2@visiondesk.test", Name: "Dev 2", PasswordHash: "x", Role: models.RoleDeveloper, IsActive: true}
	w.clientA = models.User{Email: "client@acme.test", Name: "Client", PasswordHash: "x", Role: models.RoleClient, CompanyID: &w.companyA.ID, IsActive: true}
	for _, u := range []*models.User{&w.admin, &w.manager, &w.developer, &w.otherDeveloper, &w.clientA} {
		require.NoError(t, db.Create(u).Error)
	}

	w.projectA = models.Project{Name: "Acme Site", ClientCompanyID: w.companyA.ID, AdminID: w.admin.ID, Status: models.ProjectInProgress}
	w.projectB = models.Project{Name: "Globex App", ClientCompanyID: w.companyB.ID, AdminID: w.admin.ID, Status: models.ProjectPending}
	require.NoError(t, db.Create(&w.projectA).Error)
	require.NoError(t, db.Create(&w.projectB).Error)

	w.taskA = models.Task{Title: "Build homepage", ProjectID: w.projectA.ID, AssignedTo: w.developer.ID, Status: models.TaskTodo, Priority: models.PriorityMedium}
	require.NoError(t, db.Create(&w.taskA).Error)

	return w
}

func itoa(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func TestProjectListVisibility(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)

	t.Run("client sees only their company's projects", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.clientA), "GET", "/projects", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var projects []models.Project
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
		require.Len(t, projects, 1)
		assert.Equal(t, w.projectA.ID, projects[0].ID)
	})

	t.Run("manager sees everything", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.manager), "GET", "/projects", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var projects []models.Project
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
		assert.Len(t, projects, 2)
	})

	t.Run("hidden project answers forbidden, missing answers not found", func(t *testing.T) {
		app := newApp(db, &w.clientA)
		resp := doJSON(t, app, "GET", "/projects/"+itoa(w.projectB.ID), nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

		resp = doJSON(t, app, "GET", "/projects/99999", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestProjectDetailScopesTasks(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)

	otherTask := models.Task{Title: "Backend API", ProjectID: w.projectA.ID, AssignedTo: w.otherDeveloper.ID, Status: models.TaskTodo, Priority: models.PriorityMedium}
	require.NoError(t, db.Create(&otherTask).Error)

	var out struct {
		Project struct {
			ID    uint          `json:"ID"`
			Tasks []models.Task `json:"tasks"`
		} `json:"project"`
	}

	t.Run("developer only receives their own tasks in the payload", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.developer), "GET", "/projects/"+itoa(w.projectA.ID), nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out.Project.Tasks, 1)
		assert.Equal(t, w.developer.ID, out.Project.Tasks[0].AssignedTo)
	})

	t.Run("manager receives every task", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.manager), "GET", "/projects/"+itoa(w.projectA.ID), nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Len(t, out.Project.Tasks, 2)
	})
}

func TestTaskUpdatePermissions(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)
	path := "/tasks/" + itoa(w.taskA.ID)

	t.Run("non-assigned developer gets forbidden", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.otherDeveloper), "PUT", path, fiber.Map{"status": "in_progress"})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("assigned developer may move status and progress", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.developer), "PUT", path, fiber.Map{
			"status":              "in_progress",
			"progress_percentage": 40,
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var task models.Task
		require.NoError(t, db.First(&task, w.taskA.ID).Error)
		assert.Equal(t, models.TaskInProgress, task.Status)
		assert.Equal(t, 40, task.ProgressPercentage)
	})

	t.Run("assigned developer may not retitle", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.developer), "PUT", path, fiber.Map{"title": "New title"})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("manager may change any field", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.manager), "PUT", path, fiber.Map{
			"title":    "Reworked homepage",
			"priority": "high",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var task models.Task
		require.NoError(t, db.First(&task, w.taskA.ID).Error)
		assert.Equal(t, "Reworked homepage", task.Title)
		assert.Equal(t, models.PriorityHigh, task.Priority)
	})

	t.Run("missing task answers not found", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.manager), "PUT", "/tasks/99999", fiber.Map{"status": "done"})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestSubTaskInheritsTaskRule(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)
	path := "/tasks/" + itoa(w.taskA.ID) + "/subtasks"

	resp := doJSON(t, newApp(db, &w.developer), "POST", path, fiber.Map{"title": "Write markup"})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, newApp(db, &w.otherDeveloper), "POST", path, fiber.Map{"title": "Sneaky"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, newApp(db, &w.clientA), "POST", path, fiber.Map{"title": "Client note"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubTaskPartialUpdate(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)

	subTask := models.SubTask{TaskID: w.taskA.ID, Title: "Write markup", Status: models.TaskTodo, CreatedBy: w.manager.ID}
	require.NoError(t, db.Create(&subTask).Error)
	path := "/tasks/" + itoa(w.taskA.ID) + "/subtasks/" + itoa(subTask.ID)

	t.Run("approve-only update keeps the title", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.manager), "PUT", path, fiber.Map{"approved": true})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got models.SubTask
		require.NoError(t, db.First(&got, subTask.ID).Error)
		assert.True(t, got.Approved)
		assert.Equal(t, "Write markup", got.Title)
	})

	t.Run("status-only update", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.developer), "PUT", path, fiber.Map{"status": "done"})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got models.SubTask
		require.NoError(t, db.First(&got, subTask.ID).Error)
		assert.Equal(t, models.TaskDone, got.Status)
	})
}

func TestProjectRatingUpsert(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)
	app := newApp(db, &w.clientA)
	path := "/projects/" + itoa(w.projectA.ID) + "/ratings"

	resp := doJSON(t, app, "POST", path, fiber.Map{"rating": 3, "comment": "okay"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "POST", path, fiber.Map{"rating": 5, "comment": "great now"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var ratings []models.ProjectRating
	require.NoError(t, db.Where("project_id = ?", w.projectA.ID).Find(&ratings).Error)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Rating)
	assert.Equal(t, "great now", ratings[0].Comment)
}

func TestRatingAuthorization(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)

	t.Run("client may not rate another company's project", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.clientA), "POST", "/projects/"+itoa(w.projectB.ID)+"/ratings", fiber.Map{"rating": 1})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("staff may not rate", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.manager), "POST", "/projects/"+itoa(w.projectA.ID)+"/ratings", fiber.Map{"rating": 5})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("task rating follows the owning project's company", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.clientA), "POST", "/tasks/"+itoa(w.taskA.ID)+"/ratings", fiber.Map{
			"rating":      4,
			"rating_type": "timeliness",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var ratings []models.TaskRating
		require.NoError(t, db.Where("task_id = ?", w.taskA.ID).Find(&ratings).Error)
		require.Len(t, ratings, 1)
		assert.Equal(t, models.RatingTimeliness, ratings[0].RatingType)
	})
}

func TestRatingAmend(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)

	rating := models.ProjectRating{ProjectID: w.projectA.ID, UserID: w.clientA.ID, Rating: 2, Comment: "slow"}
	require.NoError(t, db.Create(&rating).Error)
	path := "/projects/" + itoa(w.projectA.ID) + "/ratings/" + itoa(rating.ID)

	t.Run("staff may amend a client's rating", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.manager), "PUT", path, fiber.Map{"comment": "resolved after follow-up"})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got models.ProjectRating
		require.NoError(t, db.First(&got, rating.ID).Error)
		assert.Equal(t, "resolved after follow-up", got.Comment)
		assert.Equal(t, 2, got.Rating)
	})

	t.Run("owner may amend their own rating", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.clientA), "PUT", path, fiber.Map{"rating": 4})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got models.ProjectRating
		require.NoError(t, db.First(&got, rating.ID).Error)
		assert.Equal(t, 4, got.Rating)
	})

	t.Run("other users may not", func(t *testing.T) {
		resp := doJSON(t, newApp(db, &w.developer), "PUT", path, fiber.Map{"rating": 1})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}

func TestProjectDeleteGuard(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)
	app := newApp(db, &w.admin)
	path := "/projects/" + itoa(w.projectA.ID)

	resp := doJSON(t, app, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	require.NoError(t, db.Delete(&models.Task{}, w.taskA.ID).Error)

	resp = doJSON(t, app, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	err := db.First(&models.Project{}, w.projectA.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCompanyDeleteGuard(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)
	app := newApp(db, &w.admin)

	resp := doJSON(t, app, "DELETE", "/companies/"+itoa(w.companyA.ID), nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, "DELETE", "/companies/"+itoa(w.companyB.ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUserSelfDeletionConflict(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)

	resp := doJSON(t, newApp(db, &w.admin), "DELETE", "/users/"+itoa(w.admin.ID), nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, newApp(db, &w.admin), "DELETE", "/users/"+itoa(w.otherDeveloper.ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, newApp(db, &w.developer), "DELETE", "/users/"+itoa(w.clientA.ID), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestDashboardScoping(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)

	resp := doJSON(t, newApp(db, &w.clientA), "GET", "/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Role     string `json:"role"`
		Projects []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"projects"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, models.RoleClient, out.Role)
	require.Len(t, out.Projects, 1)
	assert.Equal(t, models.ProjectInProgress, out.Projects[0].Status)
	assert.Equal(t, int64(1), out.Projects[0].Count)
}
