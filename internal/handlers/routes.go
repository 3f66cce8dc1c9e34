package handlers

import (
	"github.com/corpdrive/server/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// Register mounts the API under /api.
func Register(app *fiber.App, auth *middleware.AuthMiddleware, authHandler *AuthHandler, filesHandler *FilesHandler, auditHandler *AuditHandler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/version", GetVersion)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", auth.RequireAuth, authHandler.Me)

	// Older clients post credentials without the /auth prefix.
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)

	api.Post("/folders", auth.RequireAuth, filesHandler.CreateFolder)
	api.Post("/files", auth.RequireAuth, filesHandler.Upload)
	api.Post("/upload-folder", auth.RequireAuth, filesHandler.UploadFolder)
	api.Get("/browse", auth.RequireAuth, filesHandler.Browse)

	itemRoutes := api.Group("/items", auth.RequireAuth)
	itemRoutes.Get("/:id", filesHandler.Get)
	itemRoutes.Get("/:id/path", filesHandler.Path)
	itemRoutes.Put("/:id", filesHandler.Rename)
	itemRoutes.Delete("/:id", filesHandler.Delete)

	api.Get("/download/file/:id", auth.RequireAuth, filesHandler.DownloadFile)
	api.Get("/download/folder/:id", auth.RequireAuth, filesHandler.DownloadFolder)
	api.Get("/file/content/:id", auth.RequireAuth, filesHandler.Content)

	api.Get("/audit", auth.RequireAuth, auditHandler.List)
}
