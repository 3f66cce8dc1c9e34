package middleware

import (
	"time"

	"github.com/corpdrive/server/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals("requestID", requestID)

		err := c.Next()

		statusCode := c.Response().StatusCode()
		details := map[string]interface{}{
			"method":        c.Method(),
			"path":          c.Path(),
			"status_code":   statusCode,
			"latency_ms":    time.Since(start).Milliseconds(),
			"user_agent":    c.Get(fiber.HeaderUserAgent),
			"ip":            c.IP(),
			"request_body":  logger.GetRequestBodySummary(c),
			"response_body": logger.GetResponseSizeSummary(c),
			"request_id":    requestID,
		}

		tenantID := logger.GetTenantIDFromContext(c)
		switch {
		case tenantID != nil && statusCode >= 500:
			logger.ErrorWithTenant(*tenantID, "http_request", err, details)
		case tenantID != nil && statusCode >= 400:
			logger.WarnWithTenant(*tenantID, "http_request", details)
		case tenantID != nil:
			logger.InfoWithTenant(*tenantID, "http_request", details)
		case statusCode >= 500:
			logger.Error("http_request", err, details)
		case statusCode >= 400:
			logger.Warn("http_request", details)
		default:
			logger.Info("http_request", details)
		}

		return err
	}
}

// SecurityLogger records rejected credentials and lookups of ids the
// caller does not own.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		var action string
		switch c.Response().StatusCode() {
		case fiber.StatusUnauthorized:
			action = "unauthorized"
		case fiber.StatusNotFound:
			action = "not_found"
		default:
			return err
		}

		tenantID := logger.GetTenantIDFromContext(c)
		details := map[string]interface{}{
			"method":    c.Method(),
			"path":      c.Path(),
			"ip":        c.IP(),
			"tenant_id": tenantID,
		}
		if tenantID != nil {
			logger.WarnWithTenant(*tenantID, action, details)
		} else {
			logger.Warn(action+"_unauthenticated", details)
		}

		return err
	}
}
