package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the on-disk key/value capability the registry persists into.
// Keys map to JSON documents; Save flushes the whole store to its backing
// medium. A missing key is empty state, not an error.
type Store interface {
	Get(key string) (json.RawMessage, bool, error)
	Set(key string, value json.RawMessage) error
	Save() error
}

// FileStore is a Store backed by a single JSON file.
// Files are written with 0600 permissions since they hold token material.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]json.RawMessage
}

// NewFileStore creates a file store at path, loading any existing content.
// A missing file starts the store empty.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:    path,
		entries: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &fs.entries); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", path, err)
	}

	return fs, nil
}

// Get returns the document stored under key.
func (fs *FileStore) Get(key string) (json.RawMessage, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	value, ok := fs.entries[key]
	return value, ok, nil
}

// Set stores a document under key. The change is not durable until Save.
func (fs *FileStore) Set(key string, value json.RawMessage) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.entries[key] = value
	return nil
}

// Save rewrites the backing file in full.
func (fs *FileStore) Save() error {
	fs.mu.Lock()
	data, err := json.MarshalIndent(fs.entries, "", "  ")
	fs.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := os.WriteFile(fs.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write store %s: %w", fs.path, err)
	}

	return nil
}
