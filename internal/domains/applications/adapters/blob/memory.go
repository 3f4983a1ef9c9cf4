package blob

import (
	"context"
	"fmt"
	"sync"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

var _ ports.BlobStore = (*MemoryStore)(nil)

// MemoryStore keeps blobs in process memory for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryStore constructs an empty store with URLs below baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://documents"
	}
	return &MemoryStore{objects: map[string][]byte{}, baseURL: baseURL}
}

// Store copies data and returns its URL.
func (s *MemoryStore) Store(_ context.Context, data []byte, meta ports.BlobMetadata) (string, error) {
	url := s.baseURL + "/" + objectKey(meta)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[url] = append([]byte(nil), data...)
	return url, nil
}

// Delete drops the blob at url.
func (s *MemoryStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[url]; !ok {
		return fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	delete(s.objects, url)
	return nil
}

// Get returns a copy of the blob at url.
func (s *MemoryStore) Get(url string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[url]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
