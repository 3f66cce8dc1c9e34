package services

import (
	"context"
	"io"
	"mime"
	"strings"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/tree"
	"github.com/google/uuid"
)

// PreviewService serves the raw content of files a browser can show inline.
type PreviewService struct {
	files *tree.Manager
}

func NewPreviewService(files *tree.Manager) *PreviewService {
	return &PreviewService{files: files}
}

// Open returns the file and its content when its mime type is previewable.
func (p *PreviewService) Open(ctx context.Context, tenantID, id uuid.UUID) (*models.Node, io.ReadCloser, error) {
	node, err := p.files.Get(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if !node.IsFile() {
		return nil, nil, &tree.Error{Kind: tree.ErrNotFound, Message: "file not found"}
	}
	if !IsPreviewable(node.ContentType()) {
		return nil, nil, &tree.Error{
			Kind:    tree.ErrBadInput,
			Message: "preview not supported for mime type " + node.ContentType(),
		}
	}
	return p.files.OpenFile(ctx, tenantID, id)
}

// IsPreviewable reports whether content of mimeType is plain text or JSON.
func IsPreviewable(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/json"
}
