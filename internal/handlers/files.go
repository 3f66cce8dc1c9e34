package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/corpdrive/server/internal/archive"
	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/services"
	"github.com/corpdrive/server/internal/tree"
	"github.com/corpdrive/server/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FilesHandler struct {
	Files    *tree.Manager
	Archives *archive.Builder
	Preview  *services.PreviewService
	Audit    *services.AuditService
}

func NewFilesHandler(files *tree.Manager, archives *archive.Builder, preview *services.PreviewService, audit *services.AuditService) *FilesHandler {
	return &FilesHandler{Files: files, Archives: archives, Preview: preview, Audit: audit}
}

func (h *FilesHandler) audit(c *fiber.Ctx, tenantID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, details map[string]interface{}) {
	h.Audit.LogAsync(services.AuditEntry{
		TenantID:     tenantID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})
}

func uploadSummary(nodes []models.Node) map[string]interface{} {
	var files int
	var bytes int64
	for _, node := range nodes {
		if node.Size != nil {
			files++
			bytes += *node.Size
		}
	}
	return map[string]interface{}{"files": files, "bytes": bytes}
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

func (h *FilesHandler) CreateFolder(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	parentID, err := parseParentID(req.ParentID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentId")
	}

	folder, err := h.Files.CreateFolder(c.UserContext(), tenantID, parentID, req.Name)
	if err != nil {
		return treeError(c, tenantID, "create_folder", err)
	}
	h.audit(c, tenantID, "folder.create", "folder", &folder.ID, map[string]interface{}{
		"name": folder.Name,
	})
	return utils.Success(c, fiber.StatusCreated, folder)
}

func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid multipart form")
	}
	uploads := formUploads(form)
	if len(uploads) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no files uploaded")
	}
	parentID, err := parseParentID(formValue(form, "parentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentId")
	}

	nodes, err := h.Files.Upload(c.UserContext(), tenantID, parentID, uploads)
	if err != nil {
		return treeError(c, tenantID, "upload_files", err)
	}
	h.audit(c, tenantID, "file.upload", "folder", parentID, uploadSummary(nodes))
	return utils.Success(c, fiber.StatusCreated, nodes)
}

func (h *FilesHandler) UploadFolder(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid multipart form")
	}
	uploads := formUploads(form)
	if len(uploads) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no files uploaded")
	}
	rootParentID, err := parseParentID(formValue(form, "rootParentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid rootParentId")
	}
	paths, err := relativePaths(form)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "paths must be a JSON array of strings")
	}

	nodes, err := h.Files.UploadFolder(c.UserContext(), tenantID, rootParentID, uploads, paths)
	if err != nil {
		return treeError(c, tenantID, "upload_folder", err)
	}
	h.audit(c, tenantID, "folder.upload", "folder", rootParentID, uploadSummary(nodes))
	return utils.Success(c, fiber.StatusCreated, nodes)
}

func (h *FilesHandler) Browse(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	parentID, err := parseParentID(c.Query("parentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentId")
	}

	nodes, err := h.Files.Browse(c.UserContext(), tenantID, parentID)
	if err != nil {
		return treeError(c, tenantID, "browse", err)
	}

	pagination, paged := utils.ParsePagination(c)
	if !paged {
		return utils.Success(c, fiber.StatusOK, nodes)
	}
	start, end := pagination.Window(len(nodes))
	return utils.Paginated(c, nodes[start:end], pagination.Page, pagination.Limit, int64(len(nodes)))
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	node, err := h.Files.Get(c.UserContext(), tenantID, id)
	if err != nil {
		return treeError(c, tenantID, "get_item", err)
	}
	return utils.Success(c, fiber.StatusOK, node)
}

func (h *FilesHandler) Path(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	chain, err := h.Files.Path(c.UserContext(), tenantID, id)
	if err != nil {
		return treeError(c, tenantID, "item_path", err)
	}
	return utils.Success(c, fiber.StatusOK, chain)
}

type renameRequest struct {
	NewName string `json:"newName"`
}

func (h *FilesHandler) Rename(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	node, err := h.Files.Rename(c.UserContext(), tenantID, id, req.NewName)
	if err != nil {
		return treeError(c, tenantID, "rename_item", err)
	}
	h.audit(c, tenantID, "item.rename", string(node.Type), &node.ID, map[string]interface{}{
		"name": node.Name,
	})
	return utils.Success(c, fiber.StatusOK, node)
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	if err := h.Files.DeleteSubtree(c.UserContext(), tenantID, id); err != nil {
		return treeError(c, tenantID, "delete_item", err)
	}
	h.audit(c, tenantID, "item.delete", "item", &id, nil)
	return utils.Message(c, fiber.StatusOK, "item deleted")
}

func (h *FilesHandler) DownloadFile(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	node, body, err := h.Files.OpenFile(c.UserContext(), tenantID, id)
	if err != nil {
		return treeError(c, tenantID, "download_file", err)
	}
	h.audit(c, tenantID, "file.download", "file", &node.ID, map[string]interface{}{
		"name": node.Name,
	})

	size := -1
	if node.Size != nil {
		size = int(*node.Size)
	}
	c.Set(fiber.HeaderContentType, node.ContentType())
	c.Set(fiber.HeaderContentDisposition, contentDisposition("attachment", node.Name))
	return c.SendStream(body, size)
}

// DownloadFolder streams a folder as a zip. The id "root" archives the
// tenant's top level.
func (h *FilesHandler) DownloadFolder(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	rootID, err := parseParentID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	zipArchive, err := h.Archives.Open(c.UserContext(), tenantID, rootID)
	if err != nil {
		return treeError(c, tenantID, "download_folder", err)
	}
	h.audit(c, tenantID, "folder.download", "folder", rootID, map[string]interface{}{
		"archive": zipArchive.FileName(),
	})

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, contentDisposition("attachment", zipArchive.FileName()))
	// An error from the producer aborts the chunked response, so the client
	// never sees a complete archive.
	c.Response().SetBodyStream(zipArchive.Body, -1)
	return nil
}

func (h *FilesHandler) Content(c *fiber.Ctx) error {
	tenantID, ok := currentTenant(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	node, body, err := h.Preview.Open(c.UserContext(), tenantID, id)
	if err != nil {
		return treeError(c, tenantID, "preview_file", err)
	}

	size := -1
	if node.Size != nil {
		size = int(*node.Size)
	}
	c.Set(fiber.HeaderContentType, node.ContentType())
	c.Set(fiber.HeaderContentDisposition, contentDisposition("inline", node.Name))
	return c.SendStream(body, size)
}

func formUploads(form *multipart.Form) []tree.Upload {
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["files[]"]
	}

	uploads := make([]tree.Upload, 0, len(headers))
	for _, header := range headers {
		header := header
		uploads = append(uploads, tree.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get(fiber.HeaderContentType),
			Size:        header.Size,
			Open: func() (io.ReadCloser, error) {
				file, err := header.Open()
				if err != nil {
					return nil, err
				}
				return file, nil
			},
		})
	}
	return uploads
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// relativePaths reads "paths" as a JSON array, or falls back to repeated
// "relativePaths" fields.
func relativePaths(form *multipart.Form) ([]string, error) {
	if raw := strings.TrimSpace(formValue(form, "paths")); raw != "" {
		var paths []string
		if err := json.Unmarshal([]byte(raw), &paths); err != nil {
			return nil, err
		}
		return paths, nil
	}
	return form.Value["relativePaths"], nil
}
