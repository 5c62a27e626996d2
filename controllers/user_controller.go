package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"visiondesk/models"
	"visiondesk/policy"
	"visiondesk/utils"
)

type UserController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewUserController(db *gorm.DB, logger *log.Logger) *UserController {
	return &UserController{DB: db, Logger: logger}
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Name      string `json:"name" validate:"required,max=100"`
	Role      string `json:"role" validate:"required,oneof=admin manager developer client"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	CompanyID *uint  `json:"company_id"`
}

type UpdateUserRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin manager developer client"`
	CompanyID *uint   `json:"company_id"`
	IsActive  *bool   `json:"is_active"`
}

// GetUsers lists all accounts. Route-gated to manager/admin.
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := uc.DB.Order("id").Find(&users).Error; err != nil {
		uc.Logger.Printf("Failed to list users: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list users", nil)
	}
	return c.JSON(users)
}

// GetUser returns one account: the caller's own, or any for staff.
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", nil)
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return notFoundOrError(c, err, "User")
	}

	if !policy.CanUpdateUser(caller, &user) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}
	return c.JSON(user)
}

// CreateUser creates an account with any role. Admin only.
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	if !policy.CanCreateUser(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only admins may create users",
		})
	}

	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var existing models.User
	if err := uc.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	if req.CompanyID != nil {
		var company models.Company
		if err := uc.DB.First(&company, *req.CompanyID).Error; err != nil {
			return notFoundOrError(c, err, "Company")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to hash password", nil)
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         req.Role,
		CompanyID:    req.CompanyID,
		IsActive:     true,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		uc.Logger.Printf("Failed to create user: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser updates an account. Users may edit their own profile;
// role, company and active-flag changes need a manager or admin, and
// nobody changes their own role.
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", nil)
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return notFoundOrError(c, err, "User")
	}

	if !policy.CanUpdateUser(caller, &user) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}

	var req UpdateUserRequest
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
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Role != nil && *req.Role != user.Role {
		if !policy.CanChangeRole(caller, &user) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Role changes require a manager or admin",
			})
		}
		updates["role"] = *req.Role
	}
	if req.CompanyID != nil {
		if !caller.IsStaff() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Company assignment requires a manager or admin",
			})
		}
		var company models.Company
		if err := uc.DB.First(&company, *req.CompanyID).Error; err != nil {
			return notFoundOrError(c, err, "Company")
		}
		updates["company_id"] = *req.CompanyID
	}
	if req.IsActive != nil {
		if !caller.IsStaff() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Activation changes require a manager or admin",
			})
		}
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := uc.DB.Model(&user).Updates(updates).Error; err != nil {
			uc.Logger.Printf("Failed to update user %d: %v", user.ID, err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update user", nil)
		}
	}

	return c.JSON(user)
}

// DeleteUser removes an account. Staff only, and never the caller's
// own account: self-deletion is a conflict, not a permission problem.
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", nil)
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		return notFoundOrError(c, err, "User")
	}

	if !policy.CanDeleteUser(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}
	if policy.SelfDeletion(caller, user.ID) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You cannot delete your own account",
		})
	}

	if err := uc.DB.Delete(&user).Error; err != nil {
		uc.Logger.Printf("Failed to delete user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete user", nil)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
