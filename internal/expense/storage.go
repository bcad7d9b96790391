package expense

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoreda/billy-audit/internal/document"
)

// Storage keeps source documents alongside the ledger, so a confirmed
// expense keeps the bill it came from.
type Storage interface {
	// Save stores a document under a fresh name derived from filename and
	// returns that name. The caller uses the returned name for Get and
	// Delete; the original filename is only a hint.
	Save(filename string, data []byte) (string, error)

	// Get retrieves a stored document by name.
	Get(name string) ([]byte, error)

	// Delete removes a stored document by name.
	Delete(name string) error
}

// LocalStorage implements the Storage interface using the local filesystem.
// Stored names are flat: a sanitized form of the upload filename behind a
// nanosecond prefix, so repeated uploads of "factura.pdf" never collide.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save stores a document and returns the name it was stored under.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), document.SanitizeFilename(filename))
	path := filepath.Join(l.basePath, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get retrieves a stored document from local storage.
func (l *LocalStorage) Get(name string) ([]byte, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a stored document from local storage.
func (l *LocalStorage) Delete(name string) error {
	path, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// resolve rejects anything that would escape the storage directory. Names
// come back from the ledger, and the ledger file is user-editable.
func (l *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return filepath.Join(l.basePath, name), nil
}
