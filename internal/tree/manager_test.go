package tree

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/storage"
	"github.com/google/uuid"
)

func TestCreateFolder(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	docs := env.mkdir(t, nil, "  Docs  ")
	if docs.Name != "Docs" {
		t.Fatalf("expected trimmed name %q, got %q", "Docs", docs.Name)
	}
	if docs.BlobHandle != nil {
		t.Fatal("expected folder to have no blob handle")
	}

	t.Run("duplicate sibling folder conflicts", func(t *testing.T) {
		_, err := env.manager.CreateFolder(ctx, env.tenant, nil, "Docs ")
		assertKind(t, err, ErrConflict)
		if msg := PublicMessage(err); msg != `a folder named "Docs" already exists in this location` {
			t.Fatalf("expected conflict message to name the folder, got %q", msg)
		}
	})

	t.Run("same name under a different parent is allowed", func(t *testing.T) {
		nested := env.mkdir(t, &docs.ID, "Docs")
		if nested.ParentID == nil || *nested.ParentID != docs.ID {
			t.Fatalf("expected nested folder under %s", docs.ID)
		}
	})

	t.Run("blank names are rejected", func(t *testing.T) {
		for _, name := range []string{"", "   ", ".", "..", "a/b"} {
			_, err := env.manager.CreateFolder(ctx, env.tenant, nil, name)
			assertKind(t, err, ErrBadInput)
		}
	})

	t.Run("unknown parent is not found", func(t *testing.T) {
		missing := uuid.New()
		_, err := env.manager.CreateFolder(ctx, env.tenant, &missing, "Orphan")
		assertKind(t, err, ErrNotFound)
	})

	t.Run("file parent is rejected", func(t *testing.T) {
		file := env.upload(t, nil, "notes.txt", "hi")
		_, err := env.manager.CreateFolder(ctx, env.tenant, &file.ID, "Inside")
		assertKind(t, err, ErrBadInput)
	})

	t.Run("other tenants cannot use the folder as parent", func(t *testing.T) {
		other := env.createCompany(t, "Globex")
		_, err := env.manager.CreateFolder(ctx, other, &docs.ID, "Sneaky")
		assertKind(t, err, ErrNotFound)

		// The same top-level name is free for another tenant.
		if _, err := env.manager.CreateFolder(ctx, other, nil, "Docs"); err != nil {
			t.Fatalf("expected other tenant to create Docs, got %v", err)
		}
	})
}

func TestRecordUploadedFile(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	docs := env.mkdir(t, nil, "Docs")

	blob, err := env.store.Put(ctx, env.tenant.String(), stringsReader("0123456789"), 10, "application/pdf", "report.pdf")
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	node, err := env.manager.RecordUploadedFile(ctx, env.tenant, &docs.ID, "report.pdf", blob, "application/pdf")
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if node.Type != models.NodeTypeFile || node.BlobHandle == nil || *node.BlobHandle != blob.Handle {
		t.Fatalf("expected file node pointing at %s, got %+v", blob.Handle, node)
	}
	if node.Size == nil || *node.Size != 10 {
		t.Fatalf("expected size 10, got %v", node.Size)
	}
	if node.Checksum == nil || *node.Checksum != storage.Checksum([]byte("0123456789")) {
		t.Fatalf("expected checksum to be recorded, got %v", node.Checksum)
	}

	_, err = env.manager.RecordUploadedFile(ctx, env.tenant, &docs.ID, "empty.bin", storage.Blob{}, "")
	assertKind(t, err, ErrBadInput)
}

func TestUploadAllowsDuplicateFileNames(t *testing.T) {
	env := setupTestEnv(t)
	docs := env.mkdir(t, nil, "Docs")

	first := env.upload(t, &docs.ID, "dup.txt", "one")
	second := env.upload(t, &docs.ID, "dup.txt", "two")
	if first.ID == second.ID {
		t.Fatal("expected two distinct file nodes")
	}

	assertNames(t, env.browseNames(t, &docs.ID), "dup.txt", "dup.txt")
}

func TestUploadRejectsOversizedFiles(t *testing.T) {
	env := setupTestEnvWithOptions(t, Options{MaxDepth: 8, MaxFileSize: 4})

	_, err := env.manager.Upload(context.Background(), env.tenant, nil, []Upload{
		textUpload("small.txt", "abc"),
		textUpload("large.txt", "abcdefgh"),
	})
	assertKind(t, err, ErrBadInput)

	if count := env.countNodes(t, models.NodeTypeFile); count != 0 {
		t.Fatalf("expected nothing stored, got %d files", count)
	}
	if handles := env.store.Handles(); len(handles) != 0 {
		t.Fatalf("expected no blobs, got %v", handles)
	}
}

func TestUploadCompensatesOnFailure(t *testing.T) {
	env := setupTestEnv(t)
	env.store.failPutAfter = 2

	_, err := env.manager.Upload(context.Background(), env.tenant, nil, []Upload{
		textUpload("a.txt", "a"),
		textUpload("b.txt", "b"),
		textUpload("c.txt", "c"),
	})
	assertKind(t, err, ErrUpstream)

	if count := env.countNodes(t, models.NodeTypeFile); count != 0 {
		t.Fatalf("expected stored file nodes to be removed, got %d", count)
	}
	if handles := env.store.Handles(); len(handles) != 0 {
		t.Fatalf("expected stored blobs to be removed, got %v", handles)
	}
}

func TestRename(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	alpha := env.mkdir(t, nil, "Alpha")
	env.mkdir(t, nil, "Beta")
	file := env.upload(t, nil, "Alpha", "not a folder")

	t.Run("folder rename to sibling folder name conflicts and keeps the old name", func(t *testing.T) {
		_, err := env.manager.Rename(ctx, env.tenant, alpha.ID, " Beta ")
		assertKind(t, err, ErrConflict)
		assertNames(t, env.browseNames(t, nil), "Alpha", "Beta", "Alpha")
	})

	t.Run("folder may take the name of a sibling file", func(t *testing.T) {
		env.upload(t, nil, "Gamma", "file")
		renamed, err := env.manager.Rename(ctx, env.tenant, alpha.ID, "Gamma")
		if err != nil {
			t.Fatalf("rename failed: %v", err)
		}
		if renamed.Name != "Gamma" {
			t.Fatalf("expected new name Gamma, got %q", renamed.Name)
		}
	})

	t.Run("file rename relabels the blob", func(t *testing.T) {
		renamed, err := env.manager.Rename(ctx, env.tenant, file.ID, "renamed.txt")
		if err != nil {
			t.Fatalf("rename failed: %v", err)
		}
		label, ok := env.store.Label(*renamed.BlobHandle)
		if !ok || label != "renamed.txt" {
			t.Fatalf("expected blob label renamed.txt, got %q", label)
		}
	})

	t.Run("file rename to sibling file name conflicts", func(t *testing.T) {
		_, err := env.manager.Rename(ctx, env.tenant, file.ID, "Gamma")
		assertKind(t, err, ErrConflict)
	})

	t.Run("blob relabel failure is not fatal", func(t *testing.T) {
		env.store.failRenames = true
		t.Cleanup(func() { env.store.failRenames = false })

		renamed, err := env.manager.Rename(ctx, env.tenant, file.ID, "still-renamed.txt")
		if err != nil {
			t.Fatalf("expected rename to succeed despite blob failure, got %v", err)
		}
		stored, err := env.manager.Get(ctx, env.tenant, file.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if stored.Name != renamed.Name {
			t.Fatalf("expected stored name %q, got %q", renamed.Name, stored.Name)
		}
	})

	t.Run("renaming to the current name is a no-op", func(t *testing.T) {
		if _, err := env.manager.Rename(ctx, env.tenant, alpha.ID, "Gamma"); err != nil {
			t.Fatalf("expected no-op rename to succeed, got %v", err)
		}
	})

	t.Run("invalid and unknown targets", func(t *testing.T) {
		_, err := env.manager.Rename(ctx, env.tenant, alpha.ID, "  ")
		assertKind(t, err, ErrBadInput)

		_, err = env.manager.Rename(ctx, env.tenant, uuid.New(), "x")
		assertKind(t, err, ErrNotFound)

		other := env.createCompany(t, "Globex")
		_, err = env.manager.Rename(ctx, other, alpha.ID, "Stolen")
		assertKind(t, err, ErrNotFound)
	})
}

func TestDeleteSubtree(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	root := env.mkdir(t, nil, "Root")
	sub := env.mkdir(t, &root.ID, "Sub")
	deep := env.mkdir(t, &sub.ID, "Deep")
	env.upload(t, &root.ID, "a.txt", "a")
	env.upload(t, &sub.ID, "b.txt", "b")
	env.upload(t, &deep.ID, "c.txt", "c")
	keep := env.upload(t, nil, "keep.txt", "keep")

	if err := env.manager.DeleteSubtree(ctx, env.tenant, root.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	assertNames(t, env.browseNames(t, nil), "keep.txt")

	for _, id := range []uuid.UUID{root.ID, sub.ID, deep.ID} {
		_, err := env.manager.Browse(ctx, env.tenant, &id)
		assertKind(t, err, ErrNotFound)
	}

	if count := env.countNodes(t, models.NodeTypeFolder); count != 0 {
		t.Fatalf("expected all folders removed, got %d", count)
	}
	handles := env.store.Handles()
	if len(handles) != 1 || handles[0] != *keep.BlobHandle {
		t.Fatalf("expected only the kept blob to remain, got %v", handles)
	}

	t.Run("missing root is not found", func(t *testing.T) {
		err := env.manager.DeleteSubtree(ctx, env.tenant, root.ID)
		assertKind(t, err, ErrNotFound)
	})

	t.Run("other tenants cannot delete", func(t *testing.T) {
		other := env.createCompany(t, "Globex")
		err := env.manager.DeleteSubtree(ctx, other, keep.ID)
		assertKind(t, err, ErrNotFound)
		assertNames(t, env.browseNames(t, nil), "keep.txt")
	})

	t.Run("blob delete failures still remove the nodes", func(t *testing.T) {
		env.store.failDeletes = true
		t.Cleanup(func() { env.store.failDeletes = false })

		if err := env.manager.DeleteSubtree(ctx, env.tenant, keep.ID); err != nil {
			t.Fatalf("expected delete to succeed, got %v", err)
		}
		assertNames(t, env.browseNames(t, nil))
	})
}

func TestDeleteSubtreeDepthCap(t *testing.T) {
	env := setupTestEnvWithOptions(t, Options{MaxDepth: 2})
	ctx := context.Background()

	a := env.mkdir(t, nil, "a")
	b := env.mkdir(t, &a.ID, "b")
	c := env.mkdir(t, &b.ID, "c")
	env.mkdir(t, &c.ID, "d")

	err := env.manager.DeleteSubtree(ctx, env.tenant, a.ID)
	assertKind(t, err, ErrBadInput)

	if count := env.countNodes(t, models.NodeTypeFolder); count != 4 {
		t.Fatalf("expected nothing deleted, got %d folders left", count)
	}

	if err := env.manager.DeleteSubtree(ctx, env.tenant, c.ID); err != nil {
		t.Fatalf("expected shallow delete to succeed, got %v", err)
	}
}

func TestBrowseOrdering(t *testing.T) {
	env := setupTestEnv(t)

	env.upload(t, nil, "file10.txt", "x")
	env.upload(t, nil, "file2.txt", "x")
	env.upload(t, nil, "File1.txt", "x")
	env.mkdir(t, nil, "zeta")
	env.mkdir(t, nil, "Alpha")
	env.mkdir(t, nil, "folder 9")
	env.mkdir(t, nil, "folder 10")

	assertNames(t, env.browseNames(t, nil),
		"Alpha", "folder 9", "folder 10", "zeta",
		"File1.txt", "file2.txt", "file10.txt",
	)

	t.Run("browsing a file is rejected", func(t *testing.T) {
		file := env.upload(t, nil, "plain.txt", "x")
		_, err := env.manager.Browse(context.Background(), env.tenant, &file.ID)
		assertKind(t, err, ErrBadInput)
	})
}

func TestOpenFile(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, nil, "hello.txt", "hello")
	node, body, err := env.manager.OpenFile(ctx, env.tenant, file.ID)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "hello" || node.Name != "hello.txt" {
		t.Fatalf("unexpected file %q with content %q", node.Name, data)
	}

	folder := env.mkdir(t, nil, "Docs")
	_, _, err = env.manager.OpenFile(ctx, env.tenant, folder.ID)
	assertKind(t, err, ErrNotFound)

	_ = env.store.MemoryStore.Delete(ctx, *file.BlobHandle)
	_, _, err = env.manager.OpenFile(ctx, env.tenant, file.ID)
	assertKind(t, err, ErrNotFound)
}

func TestPath(t *testing.T) {
	env := setupTestEnv(t)

	a := env.mkdir(t, nil, "a")
	b := env.mkdir(t, &a.ID, "b")
	file := env.upload(t, &b.ID, "c.txt", "c")

	chain, err := env.manager.Path(context.Background(), env.tenant, file.ID)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	assertNames(t, nodeNames(chain), "a", "b", "c.txt")

	chain, err = env.manager.Path(context.Background(), env.tenant, a.ID)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	assertNames(t, nodeNames(chain), "a")
}

func TestFolderNamesStayUniqueAcrossOperations(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	parent := env.mkdir(t, nil, "parent")
	for i := 0; i < 5; i++ {
		env.mkdir(t, &parent.ID, fmt.Sprintf("f%d", i))
	}
	children, err := env.manager.Browse(ctx, env.tenant, &parent.ID)
	if err != nil {
		t.Fatalf("browse failed: %v", err)
	}

	// Every rename onto a sibling's name must fail.
	for _, child := range children {
		for _, target := range children {
			if child.ID == target.ID {
				continue
			}
			_, err := env.manager.Rename(ctx, env.tenant, child.ID, target.Name)
			assertKind(t, err, ErrConflict)
		}
	}

	seen := make(map[string]bool)
	for _, name := range env.browseNames(t, &parent.ID) {
		if seen[name] {
			t.Fatalf("duplicate folder name %q", name)
		}
		seen[name] = true
	}
}
