package blobstore

import (
	"context"
	"strings"
	"sync"
)

const MemoryScheme = "mem"

// MemoryStore is an in-memory BlobStore for tests and local development.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu     sync.RWMutex
	bucket string
	blobs  map[string][]byte
}

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket: bucket,
		blobs:  make(map[string][]byte),
	}
}

func (m *MemoryStore) Scheme() string {
	return MemoryScheme
}

func (m *MemoryStore) Store(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewStorageError("store", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blobs[key]; exists {
		return "", &StorageError{Op: "store", Location: key, Err: errKeyExists}
	}

	// copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	m.blobs[key] = copied

	return FormatURI(MemoryScheme, m.bucket, key), nil
}

func (m *MemoryStore) Retrieve(ctx context.Context, uri string) ([]byte, error) {
	u, err := ParseSchemeURI(MemoryScheme, uri)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, NewStorageError("retrieve", uri, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[u.Key]
	if !ok || u.Bucket != m.bucket {
		return nil, &NotFoundError{URI: uri}
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStorageError("list", prefix, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *MemoryStore) Delete(ctx context.Context, keys []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewStorageError("delete", strings.Join(keys, ","), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.blobs, key)
	}
	return len(keys), nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
