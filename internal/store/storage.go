package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrQuotaExceeded is returned by a Storage that has no room for a value.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage is a string key-value table. Values are opaque to the storage.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// MemoryStorage keeps items in a map. A positive Quota caps the total size
// of all stored values in bytes.
type MemoryStorage struct {
	Quota int

	items map[string]string
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string]string),
	}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	return value, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Quota > 0 && m.sizeWith(key, value) > m.Quota {
		return ErrQuotaExceeded
	}
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *MemoryStorage) sizeWith(key, value string) int {
	size := len(value)
	for k, v := range m.items {
		if k != key {
			size += len(v)
		}
	}
	return size
}

// FileStorage persists items as one JSON object on disk. Every write
// rewrites the file.
type FileStorage struct {
	path  string
	items map[string]string
	mu    sync.Mutex
}

// DefaultPath returns ~/.busschema/state.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".busschema", "state.json"), nil
}

// OpenFileStorage loads path if it exists. An unreadable state file is
// logged and replaced by an empty table on the next write.
func OpenFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{
		path:  path,
		items: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &fs.items); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("State file is corrupt, starting empty")
		fs.items = make(map[string]string)
	}

	return fs, nil
}

func (f *FileStorage) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, ok := f.items[key]
	return value, ok, nil
}

func (f *FileStorage) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.items[key]
	f.items[key] = value
	if err := f.flush(); err != nil {
		if existed {
			f.items[key] = previous
		} else {
			delete(f.items, key)
		}
		return err
	}
	return nil
}

func (f *FileStorage) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.items[key]
	if !existed {
		return nil
	}
	delete(f.items, key)
	if err := f.flush(); err != nil {
		f.items[key] = previous
		return err
	}
	return nil
}

// flush writes to a temp file and renames it over the state file.
func (f *FileStorage) flush() error {
	data, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
