package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryObjectStorage keeps objects in process memory.
// It backs the archive in development and tests; content is lost on restart.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty store; download URLs are rooted at baseURL
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "memory://archive"
	}
	return &MemoryObjectStorage{
		objects: make(map[string]memoryObject),
		baseURL: baseURL,
	}
}

// Upload stores a copy of data
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errNoKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Download returns a copy of the stored bytes
func (s *MemoryObjectStorage) Download(_ context.Context, storageKey string) ([]byte, error) {
	if storageKey == "" {
		return nil, errNoKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// GenerateDownloadURL returns a non-signed URL for an existing key
func (s *MemoryObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	exists, err := s.ObjectExists(ctx, storageKey)
	if err != nil {
		return "", time.Time{}, err
	}
	if !exists {
		return "", time.Time{}, ErrObjectNotFound
	}
	return s.baseURL + "/" + storageKey, time.Now().Add(expiresIn), nil
}

// DeleteObject removes a key; missing keys are ignored
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errNoKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether a key is stored
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errNoKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

var _ ObjectStorage = (*MemoryObjectStorage)(nil)
