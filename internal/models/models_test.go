package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestBaseModelBeforeCreate(t *testing.T) {
	t.Run("assigns an id when missing", func(t *testing.T) {
		var base BaseModel
		if err := base.BeforeCreate(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if base.ID == uuid.Nil {
			t.Fatal("expected id to be generated")
		}
	})

	t.Run("keeps an existing id", func(t *testing.T) {
		id := uuid.New()
		base := BaseModel{ID: id}
		if err := base.BeforeCreate(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if base.ID != id {
			t.Fatalf("expected id %s to be preserved, got %s", id, base.ID)
		}
	})
}

func TestNodeHelpers(t *testing.T) {
	folder := Node{Type: NodeTypeFolder}
	if !folder.IsFolder() || folder.IsFile() {
		t.Fatalf("expected folder helpers to report a folder")
	}

	file := Node{Type: NodeTypeFile}
	if file.ContentType() != "application/octet-stream" {
		t.Fatalf("expected default content type, got %q", file.ContentType())
	}

	mime := "text/plain"
	file.MimeType = &mime
	if file.ContentType() != "text/plain" {
		t.Fatalf("expected stored content type, got %q", file.ContentType())
	}
}

func TestAuditLogBeforeCreate(t *testing.T) {
	var entry AuditLog
	if err := entry.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == uuid.Nil {
		t.Fatal("expected id to be generated")
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected created at to be stamped")
	}
	if entry.TableName() != "audit_logs" {
		t.Fatalf("unexpected table name %q", entry.TableName())
	}
}
