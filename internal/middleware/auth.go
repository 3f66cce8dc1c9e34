package middleware

import (
	"strings"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/corpdrive/server/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

const (
	currentCompanyKey = "currentCompany"
	// TokenHeader is accepted alongside "Authorization: Bearer" for older
	// clients.
	TokenHeader = "x-auth-token"
)

type AuthMiddleware struct {
	DB *gorm.DB
}

func NewAuthMiddleware(db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{DB: db}
}

func CORS(origins string) fiber.Handler {
	if strings.TrimSpace(origins) == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + TokenHeader,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	})
}

func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	tokenString, ok := extractToken(c)
	if !ok {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "no token, authorization denied")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "token is not valid")
	}

	var company models.Company
	if err := a.DB.WithContext(c.UserContext()).First(&company, "id = ?", claims.CompanyID).Error; err != nil {
		logger.Warn("jwt_company_not_found", map[string]interface{}{
			"ip":         c.IP(),
			"path":       c.Path(),
			"company_id": claims.CompanyID.String(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "token is not valid")
	}

	c.Locals(currentCompanyKey, &company)
	c.Locals(logger.TenantLocalKey, company.ID.String())
	return c.Next()
}

// extractToken reads the bearer token, falling back to TokenHeader.
func extractToken(c *fiber.Ctx) (string, bool) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if tokenString == authHeader || tokenString == "" {
			return "", false
		}
		return tokenString, true
	}

	tokenString := strings.TrimSpace(c.Get(TokenHeader))
	return tokenString, tokenString != ""
}

func GetCurrentCompany(c *fiber.Ctx) *models.Company {
	value := c.Locals(currentCompanyKey)
	if value == nil {
		return nil
	}
	company, ok := value.(*models.Company)
	if !ok {
		return nil
	}
	return company
}
