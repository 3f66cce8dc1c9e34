package handlers

import (
	"errors"
	"strings"

	"github.com/corpdrive/server/internal/middleware"
	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/services"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/corpdrive/server/pkg/utils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewAuthHandler(db *gorm.DB, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{DB: db, Audit: audit}
}

type credentialsRequest struct {
	CompanyName string `json:"companyName"`
	Password    string `json:"password"`
}

func (r credentialsRequest) validateForRegister() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CompanyName, validation.Required, validation.RuneLength(1, 255)),
		// bcrypt ignores bytes past 72.
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
	)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)

	if err := req.validateForRegister(); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	db := h.DB.WithContext(c.UserContext())

	var existing models.Company
	if err := db.First(&existing, "name = ?", req.CompanyName).Error; err == nil {
		return utils.Error(c, fiber.StatusConflict, "company already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing company")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	company := models.Company{
		Name:         req.CompanyName,
		PasswordHash: passwordHash,
	}
	if err := db.Create(&company).Error; err != nil {
		// Lost a race with a concurrent registration of the same name.
		if db.First(&existing, "name = ?", req.CompanyName).Error == nil {
			return utils.Error(c, fiber.StatusConflict, "company already registered")
		}
		logger.Error("company_register_failed", err, map[string]interface{}{
			"company_name": req.CompanyName,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating company")
	}

	logger.InfoWithTenant(company.ID.String(), "company_registered", map[string]interface{}{
		"company_name": company.Name,
		"ip":           c.IP(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		TenantID:     company.ID,
		Action:       "company.register",
		ResourceType: "company",
		ResourceID:   &company.ID,
		Details: map[string]interface{}{
			"company_name": company.Name,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	token, err := utils.GenerateToken(&company)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"token": token, "company": company})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)

	if req.CompanyName == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "companyName and password are required")
	}

	var company models.Company
	if err := h.DB.WithContext(c.UserContext()).First(&company, "name = ?", req.CompanyName).Error; err != nil {
		logger.Warn("login_failed_company_not_found", map[string]interface{}{
			"company_name": req.CompanyName,
			"ip":           c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if !utils.CheckPassword(req.Password, company.PasswordHash) {
		logger.WarnWithTenant(company.ID.String(), "login_failed_invalid_password", map[string]interface{}{
			"company_name": req.CompanyName,
			"ip":           c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	logger.InfoWithTenant(company.ID.String(), "company_login", map[string]interface{}{
		"company_name": company.Name,
		"ip":           c.IP(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		TenantID:     company.ID,
		Action:       "company.login",
		ResourceType: "company",
		ResourceID:   &company.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	token, err := utils.GenerateToken(&company)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "company": company})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	company := middleware.GetCurrentCompany(c)
	if company == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, company)
}
