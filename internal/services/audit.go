package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/storage"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	auditQueueSize     = 1000
	auditExportBatch   = 10000
	auditExportNS      = "audit-logs"
	auditExportContent = "application/x-ndjson"
)

type AuditEntry struct {
	TenantID     uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
	RequestID    string
}

// AuditService records drive changes off the request path. Entries are
// queued and written by a single background goroutine.
type AuditService struct {
	DB    *gorm.DB
	Blobs storage.BlobStore

	// exportBatch caps the rows shipped per export.
	exportBatch int

	mu     sync.RWMutex
	closed bool
	queue  chan models.AuditLog
	done   chan struct{}
}

func NewAuditService(db *gorm.DB, blobs storage.BlobStore) *AuditService {
	s := &AuditService{
		DB:          db,
		Blobs:       blobs,
		exportBatch: auditExportBatch,
		queue:       make(chan models.AuditLog, auditQueueSize),
		done:        make(chan struct{}),
	}
	go s.processQueue()
	return s
}

// LogAsync queues entry. When the queue is full or the service is closed the
// entry is dropped and a warning logged.
func (s *AuditService) LogAsync(entry AuditEntry) {
	row := models.AuditLog{
		TenantID:     entry.TenantID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		logger.WarnWithTenant(entry.TenantID.String(), "audit_log_after_close", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.WarnWithTenant(entry.TenantID.String(), "audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

// Close stops accepting entries and waits until queued ones are written.
// It is safe to call more than once.
func (s *AuditService) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.ErrorWithTenant(row.TenantID.String(), "audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

// List returns one page of a tenant's audit trail, newest first.
func (s *AuditService) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]models.AuditLog, int64, error) {
	scoped := func() *gorm.DB {
		return s.DB.WithContext(ctx).Model(&models.AuditLog{}).Where("tenant_id = ?", tenantID)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []models.AuditLog{}
	err := scoped().Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// StartExporter ships new audit rows to the blob store as NDJSON every
// interval until ctx is done.
func (s *AuditService) StartExporter(ctx context.Context, interval time.Duration) {
	if s.Blobs == nil || interval <= 0 {
		logger.Info("audit_exporter_disabled", map[string]interface{}{
			"interval": interval.String(),
		})
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.export(ctx); err != nil {
					logger.Error("audit_export_failed", err, nil)
				}
			}
		}
	}()

	logger.Info("audit_exporter_started", map[string]interface{}{
		"interval": interval.String(),
	})
}

// export writes every row newer than the cursor to one blob and advances
// the cursor. It returns the number of rows shipped.
func (s *AuditService) export(ctx context.Context) (int, error) {
	db := s.DB.WithContext(ctx)

	var cursor models.AuditExportCursor
	if err := db.First(&cursor).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("load export cursor: %w", err)
		}
		cursor = models.AuditExportCursor{
			LastExportAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(&cursor).Error; err != nil {
			return 0, fmt.Errorf("create export cursor: %w", err)
		}
	}

	var logs []models.AuditLog
	if err := db.Where("created_at > ? OR (created_at = ? AND id > ?)", cursor.LastExportAt, cursor.LastExportAt, cursor.LastExportID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(s.exportBatch).
		Find(&logs).Error; err != nil {
		return 0, fmt.Errorf("query audit logs: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range logs {
		if err := enc.Encode(row); err != nil {
			return 0, fmt.Errorf("encode audit log %s: %w", row.ID, err)
		}
	}

	now := time.Now().UTC()
	label := fmt.Sprintf("%s/%s.ndjson", now.Format("2006/01/02"), now.Format("15-04-05"))
	blob, err := s.Blobs.Put(ctx, auditExportNS, &buf, int64(buf.Len()), auditExportContent, label)
	if err != nil {
		return 0, fmt.Errorf("store audit export: %w", err)
	}

	last := logs[len(logs)-1]
	if err := db.Model(&cursor).Updates(map[string]interface{}{
		"last_export_at": last.CreatedAt,
		"last_export_id": last.ID,
		"exported_count": gorm.Expr("exported_count + ?", len(logs)),
	}).Error; err != nil {
		return 0, fmt.Errorf("advance export cursor: %w", err)
	}

	logger.Info("audit_export_success", map[string]interface{}{
		"handle": blob.Handle,
		"label":  label,
		"count":  len(logs),
	})
	return len(logs), nil
}
