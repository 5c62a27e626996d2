package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"visiondesk/models"
	"visiondesk/policy"
	"visiondesk/utils"
)

type CompanyController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCompanyController(db *gorm.DB, logger *log.Logger) *CompanyController {
	return &CompanyController{DB: db, Logger: logger}
}

type CompanyRequest struct {
	Name         string `json:"name" validate:"required,max=150"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,max=30"`
	Address      string `json:"address" validate:"omitempty,max=300"`
}

// GetCompanies lists companies. Route-gated to manager/admin.
func (cc *CompanyController) GetCompanies(c *fiber.Ctx) error {
	var companies []models.Company
	if err := cc.DB.Order("id").Find(&companies).Error; err != nil {
		cc.Logger.Printf("Failed to list companies: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list companies", nil)
	}
	return c.JSON(companies)
}

// GetCompany returns one company: staff see any, clients their own.
func (cc *CompanyController) GetCompany(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", nil)
	}

	var company models.Company
	if err := cc.DB.First(&company, id).Error; err != nil {
		return notFoundOrError(c, err, "Company")
	}

	if !policy.CanViewCompany(caller, company.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Operation not permitted",
		})
	}
	return c.JSON(company)
}

// CreateCompany creates a company. Admin only (route-gated too).
func (cc *CompanyController) CreateCompany(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	if !policy.CanManageCompany(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only admins may manage companies",
		})
	}

	var req CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	company := models.Company{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if err := cc.DB.Create(&company).Error; err != nil {
		cc.Logger.Printf("Failed to create company: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create company", nil)
	}

	return c.Status(fiber.StatusCreated).JSON(company)
}

// UpdateCompany updates company details. Admin only.
func (cc *CompanyController) UpdateCompany(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", nil)
	}

	var company models.Company
	if err := cc.DB.First(&company, id).Error; err != nil {
		return notFoundOrError(c, err, "Company")
	}

	if !policy.CanManageCompany(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only admins may manage companies",
		})
	}

	var req CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	updates := map[string]interface{}{
		"name":          req.Name,
		"contact_email": req.ContactEmail,
		"phone":         req.Phone,
		"address":       req.Address,
	}
	if err := cc.DB.Model(&company).Updates(updates).Error; err != nil {
		cc.Logger.Printf("Failed to update company %d: %v", company.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update company", nil)
	}

	return c.JSON(company)
}

// DeleteCompany removes a company. Admin only, and blocked while any
// user still references the company.
func (cc *CompanyController) DeleteCompany(c *fiber.Ctx) error {
	caller := policy.CallerFor(c.Locals("user").(*models.User))
	id, err := c.ParamsInt("id")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", nil)
	}

	var company models.Company
	if err := cc.DB.First(&company, id).Error; err != nil {
		return notFoundOrError(c, err, "Company")
	}

	if !policy.CanManageCompany(caller) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only admins may manage companies",
		})
	}

	blocked, err := policy.CompanyDeleteBlocked(cc.DB, company.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check company references", nil)
	}
	if blocked {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Company still has users and cannot be deleted",
		})
	}

	if err := cc.DB.Delete(&company).Error; err != nil {
		cc.Logger.Printf("Failed to delete company %d: %v", company.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete company", nil)
	}

	return c.JSON(fiber.Map{"message": "Company deleted successfully"})
}
