package tree

import (
	"context"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/google/uuid"
)

type batchKey struct {
	parent uuid.UUID // uuid.Nil for the top level
	name   string
}

// Batch resolves folder paths for one upload request. Resolved folders are
// memoized per (parent, name) so files sharing a directory prefix trigger a
// single lookup or create. A Batch must not outlive its request.
type Batch struct {
	manager  *Manager
	tenantID uuid.UUID
	folders  map[batchKey]uuid.UUID
	created  int
}

func (m *Manager) NewBatch(tenantID uuid.UUID) *Batch {
	return &Batch{
		manager:  m,
		tenantID: tenantID,
		folders:  make(map[batchKey]uuid.UUID),
	}
}

// CreatedFolders reports how many folders this batch had to create.
func (b *Batch) CreatedFolders() int {
	return b.created
}

// ResolveFolderPath walks segments below rootParentID, reusing existing
// folders and creating missing ones, and returns the innermost folder id.
// With no segments it returns rootParentID unchanged.
func (b *Batch) ResolveFolderPath(ctx context.Context, rootParentID *uuid.UUID, segments []string) (*uuid.UUID, error) {
	parentID := rootParentID
	for _, raw := range segments {
		name, err := NormalizeName(raw)
		if err != nil {
			return nil, err
		}

		key := batchKey{name: name}
		if parentID != nil {
			key.parent = *parentID
		}
		if id, ok := b.folders[key]; ok {
			parentID = &id
			continue
		}

		id, err := b.lookupOrCreate(ctx, parentID, name)
		if err != nil {
			return nil, err
		}
		b.folders[key] = id
		parentID = &id
	}
	return parentID, nil
}

func (b *Batch) lookupOrCreate(ctx context.Context, parentID *uuid.UUID, name string) (uuid.UUID, error) {
	repo := b.manager.repo

	existing, err := repo.FindChild(ctx, b.tenantID, parentID, name, models.NodeTypeFolder)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	folder := &models.Node{
		Name:     name,
		Type:     models.NodeTypeFolder,
		ParentID: parentID,
		TenantID: b.tenantID,
	}
	if err := repo.Create(ctx, folder); err != nil {
		// Another request may have created it first.
		existing, findErr := repo.FindChild(ctx, b.tenantID, parentID, name, models.NodeTypeFolder)
		if findErr == nil && existing != nil {
			return existing.ID, nil
		}
		return uuid.Nil, upstream("create folder", err)
	}

	b.created++
	logger.InfoWithTenant(b.tenantID.String(), "folder_created", map[string]interface{}{
		"folder_id": folder.ID.String(),
		"name":      folder.Name,
		"parent_id": idString(parentID),
		"source":    "upload_batch",
	})
	return folder.ID, nil
}
