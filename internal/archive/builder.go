package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/storage"
	"github.com/corpdrive/server/internal/tree"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
)

// RootName names the archive of a tenant's top level.
const RootName = "root"

type Options struct {
	CompressionLevel int
	MaxDepth         int
}

// Builder streams folder subtrees as zip archives.
type Builder struct {
	repo  tree.Repository
	blobs storage.BlobStore
	opts  Options
}

func NewBuilder(repo tree.Repository, blobs storage.BlobStore, opts Options) *Builder {
	if opts.CompressionLevel < flate.HuffmanOnly || opts.CompressionLevel > flate.BestCompression {
		opts.CompressionLevel = flate.DefaultCompression
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 256
	}
	return &Builder{repo: repo, blobs: blobs, opts: opts}
}

// Archive is a zip being produced in the background. Reading Body yields the
// archive bytes; a failure while producing it surfaces as a read error.
// Closing Body early stops the producer.
type Archive struct {
	Name string
	Body io.ReadCloser
}

func (a *Archive) FileName() string {
	return a.Name + ".zip"
}

// Open validates rootID and starts streaming its subtree. A nil rootID
// archives the tenant's top level under RootName.
func (b *Builder) Open(ctx context.Context, tenantID uuid.UUID, rootID *uuid.UUID) (*Archive, error) {
	root := models.Node{Name: RootName, Type: models.NodeTypeFolder}
	root.CreatedAt = time.Now()
	if rootID != nil {
		node, err := b.repo.Get(ctx, tenantID, *rootID)
		if err != nil {
			if errors.Is(err, tree.ErrNotFound) {
				return nil, &tree.Error{Kind: tree.ErrNotFound, Message: "folder not found"}
			}
			return nil, err
		}
		if !node.IsFolder() {
			return nil, &tree.Error{Kind: tree.ErrNotFound, Message: "folder not found"}
		}
		root = *node
	}

	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	go func() {
		defer cancel()
		err := b.write(ctx, tenantID, root, rootID, pw)
		if err != nil {
			logger.ErrorWithTenant(tenantID.String(), "archive_aborted", err, map[string]interface{}{
				"root": root.Name,
			})
		}
		_ = pw.CloseWithError(err)
	}()

	return &Archive{Name: root.Name, Body: &pipeBody{PipeReader: pr, cancel: cancel}}, nil
}

type pipeBody struct {
	*io.PipeReader
	cancel context.CancelFunc
}

func (p *pipeBody) Close() error {
	p.cancel()
	return p.PipeReader.Close()
}

type entry struct {
	node  models.Node
	path  string
	depth int
}

// write emits root then its descendants in pre-order, siblings in listing
// order.
func (b *Builder) write(ctx context.Context, tenantID uuid.UUID, root models.Node, rootID *uuid.UUID, w io.Writer) error {
	zw := zip.NewWriter(w)
	level := b.opts.CompressionLevel
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	if err := writeDir(zw, root.Name, root.CreatedAt); err != nil {
		return err
	}

	stack, err := b.children(ctx, tenantID, rootID, root.Name, 1)
	if err != nil {
		return err
	}

	files := 0
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !current.node.IsFolder() {
			if err := b.writeFile(ctx, zw, current); err != nil {
				return err
			}
			files++
			continue
		}

		if err := writeDir(zw, current.path, current.node.CreatedAt); err != nil {
			return err
		}
		children, err := b.children(ctx, tenantID, &current.node.ID, current.path, current.depth+1)
		if err != nil {
			return err
		}
		stack = append(stack, children...)
	}

	if err := zw.Close(); err != nil {
		return err
	}

	logger.InfoWithTenant(tenantID.String(), "archive_completed", map[string]interface{}{
		"root":  root.Name,
		"files": files,
	})
	return nil
}

// children returns the entries below parentID reversed, so popping them off
// a stack visits them in listing order.
func (b *Builder) children(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, parentPath string, depth int) ([]entry, error) {
	if depth > b.opts.MaxDepth {
		return nil, fmt.Errorf("folder tree is deeper than %d levels", b.opts.MaxDepth)
	}
	nodes, err := b.repo.ListChildren(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	tree.SortNodes(nodes)

	entries := make([]entry, len(nodes))
	for i, node := range nodes {
		entries[len(nodes)-1-i] = entry{
			node:  node,
			path:  path.Join(parentPath, node.Name),
			depth: depth,
		}
	}
	return entries, nil
}

func (b *Builder) writeFile(ctx context.Context, zw *zip.Writer, e entry) error {
	if e.node.BlobHandle == nil {
		return fmt.Errorf("file %s has no content", e.path)
	}
	body, err := b.blobs.Open(ctx, *e.node.BlobHandle)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.path, err)
	}
	defer body.Close()

	header := &zip.FileHeader{
		Name:     e.path,
		Method:   zip.Deflate,
		Modified: e.node.CreatedAt,
	}
	fw, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, body); err != nil {
		return fmt.Errorf("copy %s: %w", e.path, err)
	}
	return nil
}

func writeDir(zw *zip.Writer, dirPath string, modified time.Time) error {
	_, err := zw.CreateHeader(&zip.FileHeader{
		Name:     dirPath + "/",
		Method:   zip.Store,
		Modified: modified,
	})
	return err
}
