package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	blob, err := store.Put(ctx, "tenant-a", strings.NewReader("hello world"), 11, "text/plain", "hello.txt")
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	t.Run("put reports size checksum and namespaced handle", func(t *testing.T) {
		if blob.Size != 11 {
			t.Fatalf("expected size 11, got %d", blob.Size)
		}
		if blob.Checksum != Checksum([]byte("hello world")) {
			t.Fatalf("unexpected checksum %s", blob.Checksum)
		}
		if !strings.HasPrefix(blob.Handle, "tenant-a/") {
			t.Fatalf("expected handle under namespace, got %s", blob.Handle)
		}
	})

	t.Run("open returns stored bytes", func(t *testing.T) {
		rc, err := store.Open(ctx, blob.Handle)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(data) != "hello world" {
			t.Fatalf("expected stored bytes, got %q", data)
		}
	})

	t.Run("rename relabels without changing the handle", func(t *testing.T) {
		if err := store.Rename(ctx, blob.Handle, "greeting.txt"); err != nil {
			t.Fatalf("rename failed: %v", err)
		}
		label, ok := store.Label(blob.Handle)
		if !ok || label != "greeting.txt" {
			t.Fatalf("expected relabelled blob, got %q (found=%v)", label, ok)
		}
	})

	t.Run("short reads are rejected", func(t *testing.T) {
		if _, err := store.Put(ctx, "tenant-a", bytes.NewReader([]byte("abc")), 10, "", "short.bin"); err == nil {
			t.Fatal("expected size mismatch to fail")
		}
	})

	t.Run("delete is idempotent and open then fails", func(t *testing.T) {
		if err := store.Delete(ctx, blob.Handle); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := store.Delete(ctx, blob.Handle); err != nil {
			t.Fatalf("second delete failed: %v", err)
		}
		if _, err := store.Open(ctx, blob.Handle); !errors.Is(err, ErrBlobNotFound) {
			t.Fatalf("expected ErrBlobNotFound, got %v", err)
		}
		if err := store.Rename(ctx, blob.Handle, "x"); !errors.Is(err, ErrBlobNotFound) {
			t.Fatalf("expected ErrBlobNotFound on rename, got %v", err)
		}
		if len(store.Handles()) != 0 {
			t.Fatalf("expected empty store, got %v", store.Handles())
		}
	})
}

func TestChecksumReaderMatchesChecksum(t *testing.T) {
	payload := bytes.Repeat([]byte("corpdrive"), 4096)
	reader := newChecksumReader(bytes.NewReader(payload))
	if _, err := io.Copy(io.Discard, reader); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if reader.count != int64(len(payload)) {
		t.Fatalf("expected count %d, got %d", len(payload), reader.count)
	}
	if reader.Sum() != Checksum(payload) {
		t.Fatal("expected streaming checksum to match one-shot checksum")
	}
}
