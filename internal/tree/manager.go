package tree

import (
	"context"
	"errors"
	"io"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/storage"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/google/uuid"
)

type Options struct {
	// MaxDepth bounds how deep delete, path and archive walks may descend.
	MaxDepth int
	// MaxFileSize rejects uploads larger than this many bytes. Zero disables
	// the check.
	MaxFileSize int64
}

// Manager owns the folder tree of every tenant: it validates names, keeps
// folder names unique per parent, and cascades deletes to stored blobs.
type Manager struct {
	repo  Repository
	blobs storage.BlobStore
	opts  Options
}

func NewManager(repo Repository, blobs storage.BlobStore, opts Options) *Manager {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 256
	}
	return &Manager{repo: repo, blobs: blobs, opts: opts}
}

func (m *Manager) Repository() Repository {
	return m.repo
}

func (m *Manager) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Node, error) {
	return m.repo.Get(ctx, tenantID, id)
}

// CreateFolder adds a folder under parentID (nil for the top level).
func (m *Manager) CreateFolder(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, rawName string) (*models.Node, error) {
	name, err := NormalizeName(rawName)
	if err != nil {
		return nil, err
	}
	if err := m.requireFolder(ctx, tenantID, parentID); err != nil {
		return nil, err
	}

	existing, err := m.repo.FindChild(ctx, tenantID, parentID, name, models.NodeTypeFolder)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, folderExists(name)
	}

	folder := &models.Node{
		Name:     name,
		Type:     models.NodeTypeFolder,
		ParentID: parentID,
		TenantID: tenantID,
	}
	if err := m.createFolderNode(ctx, folder); err != nil {
		return nil, err
	}

	logger.InfoWithTenant(tenantID.String(), "folder_created", map[string]interface{}{
		"folder_id": folder.ID.String(),
		"name":      folder.Name,
		"parent_id": idString(parentID),
	})
	return folder, nil
}

// createFolderNode inserts folder. A failed insert that raced another writer
// trips the unique index and is reported as a conflict.
func (m *Manager) createFolderNode(ctx context.Context, folder *models.Node) error {
	createErr := m.repo.Create(ctx, folder)
	if createErr == nil {
		return nil
	}
	existing, err := m.repo.FindChild(ctx, folder.TenantID, folder.ParentID, folder.Name, models.NodeTypeFolder)
	if err == nil && existing != nil {
		return folderExists(folder.Name)
	}
	return upstream("create folder", createErr)
}

// RecordUploadedFile creates a file node for a blob already in the store.
// File names are not unique within a folder; only folders are.
func (m *Manager) RecordUploadedFile(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, rawName string, blob storage.Blob, mimeType string) (*models.Node, error) {
	name, err := NormalizeName(rawName)
	if err != nil {
		return nil, err
	}
	if blob.Handle == "" {
		return nil, badInput("file %q has no stored content", name)
	}
	if err := m.requireFolder(ctx, tenantID, parentID); err != nil {
		return nil, err
	}
	return m.recordFile(ctx, tenantID, parentID, name, blob, mimeType)
}

func (m *Manager) recordFile(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, name string, blob storage.Blob, mimeType string) (*models.Node, error) {
	handle, size, checksum := blob.Handle, blob.Size, blob.Checksum
	file := &models.Node{
		Name:       name,
		Type:       models.NodeTypeFile,
		ParentID:   parentID,
		TenantID:   tenantID,
		BlobHandle: &handle,
		MimeType:   &mimeType,
		Size:       &size,
	}
	if checksum != "" {
		file.Checksum = &checksum
	}
	if err := m.repo.Create(ctx, file); err != nil {
		return nil, upstream("save file", err)
	}
	return file, nil
}

// Rename changes a node's name. Siblings of the same type may not share the
// new name. Files also relabel their blob; a relabel failure is only logged.
func (m *Manager) Rename(ctx context.Context, tenantID, id uuid.UUID, rawName string) (*models.Node, error) {
	name, err := NormalizeName(rawName)
	if err != nil {
		return nil, err
	}

	node, err := m.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if node.Name == name {
		return node, nil
	}

	sibling, err := m.repo.FindChild(ctx, tenantID, node.ParentID, name, node.Type)
	if err != nil {
		return nil, err
	}
	if sibling != nil && sibling.ID != node.ID {
		return nil, conflict("a %s named %q already exists in this location", node.Type, name)
	}

	if err := m.repo.UpdateName(ctx, tenantID, id, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if node.IsFolder() {
			if sibling, findErr := m.repo.FindChild(ctx, tenantID, node.ParentID, name, node.Type); findErr == nil && sibling != nil {
				return nil, folderExists(name)
			}
		}
		return nil, upstream("rename item", err)
	}

	oldName := node.Name
	node.Name = name

	if node.IsFile() && node.BlobHandle != nil {
		if err := m.blobs.Rename(ctx, *node.BlobHandle, name); err != nil {
			logger.WarnWithTenant(tenantID.String(), "blob_rename_failed", map[string]interface{}{
				"node_id": id.String(),
				"handle":  *node.BlobHandle,
				"error":   err.Error(),
			})
		}
	}

	logger.InfoWithTenant(tenantID.String(), "item_renamed", map[string]interface{}{
		"node_id":  id.String(),
		"type":     node.Type,
		"old_name": oldName,
		"new_name": name,
	})
	return node, nil
}

// DeleteSubtree removes id and everything beneath it. Node rows are deleted
// in one transaction in post-order; blobs are removed afterwards and a
// failed blob delete is logged, not returned.
func (m *Manager) DeleteSubtree(ctx context.Context, tenantID, id uuid.UUID) error {
	root, err := m.repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	order, err := m.postOrder(ctx, tenantID, *root)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(order))
	var handles []string
	for _, node := range order {
		ids = append(ids, node.ID)
		if node.IsFile() && node.BlobHandle != nil {
			handles = append(handles, *node.BlobHandle)
		}
	}

	if err := m.repo.DeleteNodes(ctx, tenantID, ids); err != nil {
		return upstream("delete item", err)
	}

	failed := m.deleteBlobs(ctx, tenantID, handles)

	logger.InfoWithTenant(tenantID.String(), "subtree_deleted", map[string]interface{}{
		"root_id":      id.String(),
		"type":         root.Type,
		"nodes":        len(ids),
		"blobs":        len(handles),
		"failed_blobs": failed,
	})
	return nil
}

type walkFrame struct {
	node     models.Node
	depth    int
	expanded bool
}

// postOrder lists root's subtree children-first using an explicit stack.
func (m *Manager) postOrder(ctx context.Context, tenantID uuid.UUID, root models.Node) ([]models.Node, error) {
	var order []models.Node
	stack := []walkFrame{{node: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if !top.node.IsFolder() || top.expanded {
			order = append(order, top.node)
			stack = stack[:len(stack)-1]
			continue
		}

		top.expanded = true
		depth := top.depth + 1
		if depth > m.opts.MaxDepth {
			return nil, badInput("folder tree is deeper than %d levels", m.opts.MaxDepth)
		}
		if err := ctx.Err(); err != nil {
			return nil, upstream("walk folder tree", err)
		}

		children, err := m.repo.ListChildren(ctx, tenantID, &top.node.ID)
		if err != nil {
			return nil, err
		}
		SortNodes(children)
		// top is invalid once the stack grows.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, walkFrame{node: children[i], depth: depth})
		}
	}
	return order, nil
}

func (m *Manager) deleteBlobs(ctx context.Context, tenantID uuid.UUID, handles []string) int {
	ctx = context.WithoutCancel(ctx)
	failed := 0
	for _, handle := range handles {
		if err := m.blobs.Delete(ctx, handle); err != nil {
			failed++
			logger.ErrorWithTenant(tenantID.String(), "blob_delete_failed", err, map[string]interface{}{
				"handle": handle,
			})
		}
	}
	return failed
}

// Browse lists the direct children of parentID (nil for the top level).
func (m *Manager) Browse(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) ([]models.Node, error) {
	if err := m.requireFolder(ctx, tenantID, parentID); err != nil {
		return nil, err
	}
	children, err := m.repo.ListChildren(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	SortNodes(children)
	return children, nil
}

// OpenFile returns a file node together with a reader over its content.
func (m *Manager) OpenFile(ctx context.Context, tenantID, id uuid.UUID) (*models.Node, io.ReadCloser, error) {
	node, err := m.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if !node.IsFile() || node.BlobHandle == nil {
		return nil, nil, notFound("file")
	}

	body, err := m.blobs.Open(ctx, *node.BlobHandle)
	if errors.Is(err, storage.ErrBlobNotFound) {
		logger.WarnWithTenant(tenantID.String(), "blob_missing", map[string]interface{}{
			"node_id": id.String(),
			"handle":  *node.BlobHandle,
		})
		return nil, nil, notFound("file content")
	}
	if err != nil {
		return nil, nil, upstream("read file", err)
	}
	return node, body, nil
}

// Path returns the chain of nodes from the top level down to id.
func (m *Manager) Path(ctx context.Context, tenantID, id uuid.UUID) ([]models.Node, error) {
	node, err := m.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	chain := []models.Node{*node}
	for current := node; current.ParentID != nil; {
		if len(chain) > m.opts.MaxDepth {
			return nil, badInput("folder tree is deeper than %d levels", m.opts.MaxDepth)
		}
		parent, err := m.repo.Get(ctx, tenantID, *current.ParentID)
		if err != nil {
			return nil, wrapUpstream("resolve path", err)
		}
		chain = append(chain, *parent)
		current = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// requireFolder checks parentID names a folder owned by tenantID. A nil
// parent is the top level and always exists.
func (m *Manager) requireFolder(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	parent, err := m.repo.Get(ctx, tenantID, *parentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound("parent folder")
		}
		return err
	}
	if !parent.IsFolder() {
		return badInput("%q is not a folder", parent.Name)
	}
	return nil
}

func folderExists(name string) error {
	return conflict("a folder named %q already exists in this location", name)
}

func idString(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}
