package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MemoryKeyStore keeps the seed in memory. Useful for tests and for callers
// that accept losing stored credentials on restart.
type MemoryKeyStore struct {
	mu   sync.Mutex
	seed string
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{}
}

func (s *MemoryKeyStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed, nil
}

func (s *MemoryKeyStore) Store(seed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seed != "" {
		return nil // keep the winner
	}
	s.seed = seed
	return nil
}

func (s *MemoryKeyStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = ""
	return nil
}

// FileKeyStore persists the seed to a single file, created with 0600
// permissions. Store uses O_EXCL so concurrent first-time writers cannot
// clobber each other.
type FileKeyStore struct {
	path string
}

func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

func (s *FileKeyStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return string(data), nil
}

func (s *FileKeyStore) Store(seed string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if os.IsExist(err) {
		return nil // another writer won; Load picks up its seed
	}
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(seed); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

func (s *FileKeyStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
