package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goliatone/go-accounts/pkg/types"
)

// MemoryStore is an in-process object store used in tests and local
// development. It is safe for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	objects       map[string][]byte
	contentTypes  map[string]string
	publicBaseURL string
}

var _ types.ObjectStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore(publicBaseURL string) *MemoryStore {
	if publicBaseURL == "" {
		publicBaseURL = "memory://avatars"
	}
	return &MemoryStore{
		objects:       make(map[string][]byte),
		contentTypes:  make(map[string]string),
		publicBaseURL: publicBaseURL,
	}
}

// Upload stores the object bytes and returns the public URL.
func (s *MemoryStore) Upload(_ context.Context, path string, body io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("storage: read body: %w", err)
	}
	s.mu.Lock()
	s.objects[path] = data
	s.contentTypes[path] = contentType
	s.mu.Unlock()
	return s.PublicURL(path), nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	delete(s.objects, path)
	delete(s.contentTypes, path)
	s.mu.Unlock()
	return nil
}

// PublicURL returns the synthetic URL for the object.
func (s *MemoryStore) PublicURL(path string) string {
	return joinURL(s.publicBaseURL, path)
}

// Get returns the stored bytes, for assertions in tests.
func (s *MemoryStore) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[path]
	return data, ok
}

// Len reports how many objects are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// ContentType returns the recorded content type for the object.
func (s *MemoryStore) ContentType(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contentTypes[path]
}
