package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"hash"
	"io"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// ErrBlobNotFound is returned by Open when the handle names no stored object.
var ErrBlobNotFound = errors.New("blob not found")

// Blob describes bytes accepted by a BlobStore.
type Blob struct {
	Handle   string
	Size     int64
	Checksum string
}

// BlobStore keeps file contents outside the database. Handles are opaque to
// callers; the label is the human readable file name stored alongside the
// object for operators browsing the bucket.
type BlobStore interface {
	Put(ctx context.Context, namespace string, r io.Reader, size int64, contentType, label string) (Blob, error)
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	Delete(ctx context.Context, handle string) error
	Rename(ctx context.Context, handle, label string) error
	EnsureReady(ctx context.Context) error
}

func newHandle(namespace string) string {
	return namespace + "/" + uuid.NewString()
}

// checksumReader hashes and counts everything read through it.
type checksumReader struct {
	r     io.Reader
	h     hash.Hash
	count int64
}

func newChecksumReader(r io.Reader) *checksumReader {
	return &checksumReader{r: r, h: blake3.New()}
}

func (c *checksumReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.h.Write(p[:n])
		c.count += int64(n)
	}
	return n, err
}

func (c *checksumReader) Sum() string {
	return hex.EncodeToString(c.h.Sum(nil))
}

// Checksum returns the hex BLAKE3 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
