package datastore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/stephankoppes/book-nest/internal/domain"
)

var _ domain.CoverStore = &MemoryCovers{}

// MemoryCovers is an in-memory object store for cover images.
type MemoryCovers struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte

	UploadErr error
}

func NewMemoryCovers(baseURL string) *MemoryCovers {
	return &MemoryCovers{
		baseURL: baseURL,
		objects: make(map[string][]byte),
	}
}

func (m *MemoryCovers) UploadCover(_ context.Context, path, _ string, content io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return m.UploadErr
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("memorycovers: read content: %w", err)
	}
	m.objects[path] = data
	return nil
}

func (m *MemoryCovers) PublicCoverURL(path string) string {
	return m.baseURL + "/covers/" + path
}

// Object returns the stored bytes for a path, for tests.
func (m *MemoryCovers) Object(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	return data, ok
}
