package ledger

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for archived invoice files
type Storage interface {
	// Save stores an invoice file and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves an invoice file by path
	Get(path string) ([]byte, error)

	// Delete removes an archived invoice file that did not produce an entry
	Delete(path string) error
}

// LocalStorage implements the Storage interface using a directory on the
// local filesystem (the upload root)
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes an invoice file under the upload root. Archived invoices are
// immutable: saving over an existing filename is refused.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return filename, nil
}

// Get reads an invoice file from the upload root
func (l *LocalStorage) Get(path string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes an invoice file from the upload root
func (l *LocalStorage) Delete(path string) error {
	fullPath := filepath.Join(l.basePath, path)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
