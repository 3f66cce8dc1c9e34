package handlers

import (
	"errors"
	"mime"
	"strings"

	"github.com/corpdrive/server/internal/middleware"
	"github.com/corpdrive/server/internal/tree"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/corpdrive/server/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// parseParentID reads an optional folder id. Empty, "null" and "root" all
// mean the top level.
func parseParentID(value string) (*uuid.UUID, error) {
	switch strings.TrimSpace(value) {
	case "", "null", "root":
		return nil, nil
	}
	id, err := parseUUID(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func currentTenant(c *fiber.Ctx) (uuid.UUID, bool) {
	company := middleware.GetCurrentCompany(c)
	if company == nil {
		return uuid.Nil, false
	}
	return company.ID, true
}

// treeError writes the response for an error returned by the tree, archive
// or preview layers. Upstream failures are logged and answered generically.
func treeError(c *fiber.Ctx, tenantID uuid.UUID, action string, err error) error {
	switch {
	case errors.Is(err, tree.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, tree.PublicMessage(err))
	case errors.Is(err, tree.ErrConflict), errors.Is(err, tree.ErrBadInput):
		return utils.Error(c, fiber.StatusBadRequest, tree.PublicMessage(err))
	default:
		logger.ErrorWithTenant(tenantID.String(), action+"_failed", err, map[string]interface{}{
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestID").(string); ok {
		return id
	}
	return ""
}

func contentDisposition(disposition, filename string) string {
	if value := mime.FormatMediaType(disposition, map[string]string{"filename": filename}); value != "" {
		return value
	}
	return disposition
}
