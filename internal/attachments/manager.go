package attachments

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedType indicates the upload's extension is not an allowed
	// image type. Only the extension is inspected; content sniffing is out
	// of scope.
	ErrUnsupportedType = errors.New("attachments: file type not allowed")
	// ErrEmptyUpload indicates a store call without file content.
	ErrEmptyUpload = errors.New("attachments: no file content supplied")
	// ErrInvalidName indicates a retrieval name that is empty or escapes
	// the attachment directory.
	ErrInvalidName = errors.New("attachments: invalid stored name")
)

// allowedExtensions is the image allow-list, matched case-insensitively
// on the extension alone.
var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// ManagerConfig describes how the attachment directory is managed.
type ManagerConfig struct {
	Dir    string
	NewID  func() string
	Logger *zap.Logger
}

// Manager owns the screenshot directory: upload validation, storage
// naming, and removal. It has no notion of ownership; callers must
// authorize access through the trade record referencing a stored name.
type Manager struct {
	dir    string
	newID  func() string
	logger *zap.Logger
}

// NewManager constructs a Manager and ensures the directory exists.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("attachments: directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachments: create directory: %w", err)
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{dir: cfg.Dir, newID: newID, logger: logger}, nil
}

// Store validates and writes an upload, returning the stored name. The
// name is the sanitized original base prefixed with a random id so no two
// records ever share a file.
func (m *Manager) Store(data []byte, originalName string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}
	ext, ok := splitAllowedExtension(originalName)
	if !ok {
		return "", ErrUnsupportedType
	}

	storedName := m.newID() + "_" + sanitizeBase(originalName) + "." + ext
	path := filepath.Join(m.dir, storedName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("attachments: write %s: %w", storedName, err)
	}

	m.logger.Debug("attachment stored", zap.String("filename", storedName))
	return storedName, nil
}

// Replace stores the new upload and then retires the old file. A missing
// old file is fine; any other removal failure is returned because it
// leaks storage.
func (m *Manager) Replace(oldStoredName string, data []byte, originalName string) (string, error) {
	storedName, err := m.Store(data, originalName)
	if err != nil {
		return "", err
	}
	if err := m.Remove(oldStoredName); err != nil {
		return storedName, err
	}
	return storedName, nil
}

// Remove deletes a stored file. Empty names and already-absent files are
// no-ops; anything else is an error.
func (m *Manager) Remove(storedName string) error {
	if storedName == "" {
		return nil
	}
	path, err := m.resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug("attachment already absent", zap.String("filename", storedName))
			return nil
		}
		return fmt.Errorf("attachments: remove %s: %w", storedName, err)
	}
	return nil
}

// Open returns the raw bytes of a stored file. Authorization against the
// referencing trade record is the caller's responsibility.
func (m *Manager) Open(storedName string) ([]byte, error) {
	path, err := m.resolve(storedName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("attachments: read %s: %w", storedName, err)
	}
	return data, nil
}

// resolve confines a stored name to the attachment directory.
func (m *Manager) resolve(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", ErrInvalidName
	}
	return filepath.Join(m.dir, storedName), nil
}

// splitAllowedExtension extracts the extension and checks the allow-list.
func splitAllowedExtension(name string) (string, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return "", false
	}
	ext := strings.ToLower(name[dot+1:])
	_, ok := allowedExtensions[ext]
	return ext, ok
}

// sanitizeBase strips path separators and unsafe runes from the original
// base name, keeping letters, digits, dash, underscore and dot.
func sanitizeBase(name string) string {
	base := filepath.Base(filepath.ToSlash(name))
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, base)
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		cleaned = "upload"
	}
	return cleaned
}
