// Package blob stores verification media (baseline photos, attempt
// photos, phrase audio) and hands back opaque URLs. The rest of the
// system never inspects blob contents.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

type Store interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// DiskStore writes blobs under a local directory and returns URLs
// below a configured base.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: baseURL}, nil
}

func (s *DiskStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	name := uuid.New().String() + extFor(contentType)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + "/" + name, nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".bin"
	}
}

// MemStore keeps blobs in memory. Used by tests and local runs without
// a writable disk.
type MemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := "mem://" + uuid.New().String() + extFor(contentType)
	s.blobs[url] = data
	return url, nil
}
