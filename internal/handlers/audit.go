package handlers

import (
	"github.com/corpdrive/server/internal/services"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/corpdrive/server/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

// List returns the company's audit trail, newest first.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	pagination, _ := utils.ParsePagination(c)
	logs, total, err := h.Audit.List(c.UserContext(), tenantID, pagination.Page, pagination.Limit)
	if err != nil {
		logger.ErrorWithTenant(tenantID.String(), "audit_list_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading audit logs")
	}
	return utils.Paginated(c, logs, pagination.Page, pagination.Limit, total)
}
