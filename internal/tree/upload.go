package tree

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/google/uuid"
)

// Upload is one file of an upload request.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// uploadRun tracks what a single request has stored so it can be undone.
type uploadRun struct {
	manager  *Manager
	tenantID uuid.UUID
	handles  []string
	nodes    []models.Node
}

// Upload stores files directly under parentID.
func (m *Manager) Upload(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, files []Upload) ([]models.Node, error) {
	if len(files) == 0 {
		return nil, badInput("no files uploaded")
	}
	names := make([]string, len(files))
	for i, file := range files {
		name, err := NormalizeName(file.Name)
		if err != nil {
			return nil, err
		}
		if err := m.checkSize(name, file.Size); err != nil {
			return nil, err
		}
		names[i] = name
	}
	if err := m.requireFolder(ctx, tenantID, parentID); err != nil {
		return nil, err
	}

	run := &uploadRun{manager: m, tenantID: tenantID}
	for i, file := range files {
		if _, err := run.store(ctx, parentID, names[i], file); err != nil {
			run.compensate(ctx)
			return nil, err
		}
	}

	logger.InfoWithTenant(tenantID.String(), "files_uploaded", map[string]interface{}{
		"parent_id": idString(parentID),
		"count":     len(run.nodes),
	})
	return run.nodes, nil
}

// UploadFolder stores files at their relative paths below rootParentID,
// creating intermediate folders as needed. relativePaths is matched to files
// by index; when empty each file lands directly under rootParentID.
func (m *Manager) UploadFolder(ctx context.Context, tenantID uuid.UUID, rootParentID *uuid.UUID, files []Upload, relativePaths []string) ([]models.Node, error) {
	if len(files) == 0 {
		return nil, badInput("no files uploaded")
	}
	if len(relativePaths) != 0 && len(relativePaths) != len(files) {
		return nil, badInput("got %d relative paths for %d files", len(relativePaths), len(files))
	}

	type placement struct {
		dirs []string
		name string
	}
	placements := make([]placement, len(files))
	for i, file := range files {
		raw := file.Name
		if len(relativePaths) != 0 {
			raw = relativePaths[i]
		}
		dirs, name, err := SplitRelativePath(raw)
		if err != nil {
			return nil, err
		}
		if len(dirs) > m.opts.MaxDepth {
			return nil, badInput("path %q is deeper than %d levels", raw, m.opts.MaxDepth)
		}
		if err := m.checkSize(name, file.Size); err != nil {
			return nil, err
		}
		placements[i] = placement{dirs: dirs, name: name}
	}
	if err := m.requireFolder(ctx, tenantID, rootParentID); err != nil {
		return nil, err
	}

	batch := m.NewBatch(tenantID)
	run := &uploadRun{manager: m, tenantID: tenantID}
	for i, file := range files {
		parentID, err := batch.ResolveFolderPath(ctx, rootParentID, placements[i].dirs)
		if err == nil {
			_, err = run.store(ctx, parentID, placements[i].name, file)
		}
		if err != nil {
			run.compensate(ctx)
			return nil, err
		}
	}

	logger.InfoWithTenant(tenantID.String(), "folder_uploaded", map[string]interface{}{
		"root_parent_id":  idString(rootParentID),
		"files":           len(run.nodes),
		"folders_created": batch.CreatedFolders(),
	})
	return run.nodes, nil
}

func (m *Manager) checkSize(name string, size int64) error {
	if m.opts.MaxFileSize > 0 && size > m.opts.MaxFileSize {
		return badInput("file %q exceeds the %d byte limit", name, m.opts.MaxFileSize)
	}
	return nil
}

func (r *uploadRun) store(ctx context.Context, parentID *uuid.UUID, name string, file Upload) (*models.Node, error) {
	if file.Open == nil {
		return nil, badInput("file %q has no content", name)
	}
	body, err := file.Open()
	if err != nil {
		return nil, upstream(fmt.Sprintf("read upload %q", name), err)
	}
	defer body.Close()

	contentType := detectContentType(name, file.ContentType)
	blob, err := r.manager.blobs.Put(ctx, r.tenantID.String(), body, file.Size, contentType, name)
	if err != nil {
		return nil, upstream(fmt.Sprintf("store %q", name), err)
	}
	r.handles = append(r.handles, blob.Handle)

	node, err := r.manager.recordFile(ctx, r.tenantID, parentID, name, blob, contentType)
	if err != nil {
		return nil, err
	}
	r.nodes = append(r.nodes, *node)
	return node, nil
}

// compensate deletes every file node and blob this run stored. Folders
// created along the way are kept.
func (r *uploadRun) compensate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if len(r.nodes) > 0 {
		ids := make([]uuid.UUID, len(r.nodes))
		for i, node := range r.nodes {
			ids[i] = node.ID
		}
		if err := r.manager.repo.DeleteNodes(ctx, r.tenantID, ids); err != nil {
			logger.ErrorWithTenant(r.tenantID.String(), "upload_rollback_nodes_failed", err, map[string]interface{}{
				"nodes": len(ids),
			})
		}
	}
	failed := r.manager.deleteBlobs(ctx, r.tenantID, r.handles)

	logger.WarnWithTenant(r.tenantID.String(), "upload_rolled_back", map[string]interface{}{
		"nodes":        len(r.nodes),
		"blobs":        len(r.handles),
		"failed_blobs": failed,
	})
	r.nodes, r.handles = nil, nil
}

func detectContentType(name, declared string) string {
	if declared != "" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
