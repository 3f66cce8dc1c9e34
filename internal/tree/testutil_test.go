package tree

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/corpdrive/server/internal/database"
	"github.com/corpdrive/server/internal/models"
	"github.com/corpdrive/server/internal/storage"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	store   *faultyStore
	manager *Manager
	tenant  uuid.UUID
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvWithOptions(t, Options{MaxDepth: 64})
}

func setupTestEnvWithOptions(t *testing.T, opts Options) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating schema: %v", err)
	}

	store := &faultyStore{MemoryStore: storage.NewMemoryStore(), failPutAfter: -1}
	env := &testEnv{
		db:      db,
		store:   store,
		manager: NewManager(NewGormRepository(db), store, opts),
	}
	env.tenant = env.createCompany(t, "Acme")
	return env
}

func (e *testEnv) createCompany(t *testing.T, name string) uuid.UUID {
	t.Helper()
	company := models.Company{Name: name, PasswordHash: "x"}
	if err := e.db.Create(&company).Error; err != nil {
		t.Fatalf("failed creating company %s: %v", name, err)
	}
	return company.ID
}

func (e *testEnv) mkdir(t *testing.T, parentID *uuid.UUID, name string) *models.Node {
	t.Helper()
	folder, err := e.manager.CreateFolder(context.Background(), e.tenant, parentID, name)
	if err != nil {
		t.Fatalf("failed creating folder %q: %v", name, err)
	}
	return folder
}

func (e *testEnv) upload(t *testing.T, parentID *uuid.UUID, name, content string) *models.Node {
	t.Helper()
	nodes, err := e.manager.Upload(context.Background(), e.tenant, parentID, []Upload{textUpload(name, content)})
	if err != nil {
		t.Fatalf("failed uploading %q: %v", name, err)
	}
	return &nodes[0]
}

func (e *testEnv) browseNames(t *testing.T, parentID *uuid.UUID) []string {
	t.Helper()
	nodes, err := e.manager.Browse(context.Background(), e.tenant, parentID)
	if err != nil {
		t.Fatalf("browse failed: %v", err)
	}
	return nodeNames(nodes)
}

func (e *testEnv) countNodes(t *testing.T, nodeType models.NodeType) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.Node{}).Where("type = ?", nodeType).Count(&count).Error; err != nil {
		t.Fatalf("failed counting nodes: %v", err)
	}
	return count
}

func textUpload(name, content string) Upload {
	return Upload{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func nodeNames(nodes []models.Node) []string {
	names := make([]string, len(nodes))
	for i, node := range nodes {
		names[i] = node.Name
	}
	return names
}

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v error, got %v", kind, err)
	}
}

func assertNames(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected names %q, got %q", want, got)
	}
}

var errInjected = errors.New("injected blob failure")

// faultyStore fails Put after failPutAfter successful calls (-1 never) and
// every Delete when failDeletes is set.
type faultyStore struct {
	*storage.MemoryStore
	failPutAfter int
	failDeletes  bool
	failRenames  bool
}

func (s *faultyStore) Put(ctx context.Context, namespace string, r io.Reader, size int64, contentType, label string) (storage.Blob, error) {
	if s.failPutAfter == 0 {
		return storage.Blob{}, errInjected
	}
	if s.failPutAfter > 0 {
		s.failPutAfter--
	}
	return s.MemoryStore.Put(ctx, namespace, r, size, contentType, label)
}

func (s *faultyStore) Delete(ctx context.Context, handle string) error {
	if s.failDeletes {
		return errInjected
	}
	return s.MemoryStore.Delete(ctx, handle)
}

func (s *faultyStore) Rename(ctx context.Context, handle, label string) error {
	if s.failRenames {
		return errInjected
	}
	return s.MemoryStore.Rename(ctx, handle, label)
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
