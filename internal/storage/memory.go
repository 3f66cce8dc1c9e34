package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
	label       string
}

// MemoryStore is a process-local BlobStore for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(ctx context.Context, namespace string, r io.Reader, size int64, contentType, label string) (Blob, error) {
	reader := newChecksumReader(r)
	data, err := io.ReadAll(reader)
	if err != nil {
		return Blob{}, err
	}
	if size >= 0 && int64(len(data)) != size {
		return Blob{}, fmt.Errorf("short blob: expected %d bytes, read %d", size, len(data))
	}
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}

	handle := newHandle(namespace)
	s.mu.Lock()
	s.objects[handle] = memoryObject{data: data, contentType: contentType, label: label}
	s.mu.Unlock()

	return Blob{Handle: handle, Size: reader.count, Checksum: reader.Sum()}, nil
}

func (s *MemoryStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, handle)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	delete(s.objects, handle)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Rename(ctx context.Context, handle, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlobNotFound, handle)
	}
	obj.label = label
	s.objects[handle] = obj
	return nil
}

func (s *MemoryStore) EnsureReady(ctx context.Context) error {
	return nil
}

// Label reports the label stored with handle.
func (s *MemoryStore) Label(handle string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[handle]
	return obj.label, ok
}

// Handles lists stored handles in sorted order.
func (s *MemoryStore) Handles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handles := make([]string, 0, len(s.objects))
	for handle := range s.objects {
		handles = append(handles, handle)
	}
	sort.Strings(handles)
	return handles
}
