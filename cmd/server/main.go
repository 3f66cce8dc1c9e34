package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corpdrive/server/internal/archive"
	"github.com/corpdrive/server/internal/config"
	"github.com/corpdrive/server/internal/database"
	"github.com/corpdrive/server/internal/handlers"
	"github.com/corpdrive/server/internal/middleware"
	"github.com/corpdrive/server/internal/services"
	"github.com/corpdrive/server/internal/storage"
	"github.com/corpdrive/server/internal/tree"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/corpdrive/server/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("blob store initialization failed: %v", err)
	}
	if err := blobs.EnsureReady(context.Background()); err != nil {
		log.Fatalf("blob store not ready: %v", err)
	}

	repo := tree.NewGormRepository(db)
	manager := tree.NewManager(repo, blobs, tree.Options{
		MaxDepth:    cfg.Tree.MaxDepth,
		MaxFileSize: int64(cfg.Server.MaxFileSizeMB) << 20,
	})
	archives := archive.NewBuilder(repo, blobs, archive.Options{
		CompressionLevel: cfg.Tree.CompressionLevel,
		MaxDepth:         cfg.Tree.MaxDepth,
	})
	previewService := services.NewPreviewService(manager)
	auditService := services.NewAuditService(db, blobs)

	exportCtx, stopExporter := context.WithCancel(context.Background())
	defer stopExporter()
	auditService.StartExporter(exportCtx, time.Duration(cfg.Audit.ExportIntervalMinutes)*time.Minute)

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	handlers.Register(app,
		middleware.NewAuthMiddleware(db),
		handlers.NewAuthHandler(db, auditService),
		handlers.NewFilesHandler(manager, archives, previewService, auditService),
		handlers.NewAuditHandler(auditService),
	)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":           cfg.Server.Port,
		"address":        listenAddr,
		"db_driver":      cfg.DB.Driver,
		"storage_driver": cfg.Storage.Driver,
		"body_limit":     fmt.Sprintf("%dMB", cfg.Server.BodyLimitMB),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("forced shutdown: %v", err)
		}
		stopExporter()
		auditService.Close()
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}

func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinIO:
		return storage.NewMinIOClient(cfg.MinIO)
	case config.StorageDriverMemory:
		logger.Warn("memory_blob_store", map[string]interface{}{
			"detail": "file content is lost on restart",
		})
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
