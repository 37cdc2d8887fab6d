package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonwraymond/archiveview/cache"
)

// File stores each record as <dir>/<session id>/<name>.json. Writes go to a
// temp file first and are renamed into place, so a reader never sees a
// partial record.
type File struct {
	mu  sync.RWMutex
	dir string
}

// NewFile creates a file store for one session under root.
func NewFile(root, sessionID string) (*File, error) {
	if root == "" {
		return nil, ErrMissingPath
	}
	if err := ValidateID(sessionID); err != nil {
		return nil, err
	}
	dir := filepath.Join(filepath.Clean(root), sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create session directory: %w", ErrUnavailable, err)
	}
	return &File{dir: dir}, nil
}

// Type returns "file".
func (f *File) Type() string { return TypeFile }

// Dir returns the session directory.
func (f *File) Dir() string { return f.dir }

func (f *File) path(name string) (string, error) {
	if err := cache.ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, name+".json"), nil
}

// Get reads the record. A missing file is not an error.
func (f *File) Get(_ context.Context, name string) ([]byte, bool, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, false, unavailable(TypeFile, "get", name, err)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, unavailable(TypeFile, "get", name, err)
	}
	return data, true, nil
}

// Set writes the record atomically.
func (f *File) Set(_ context.Context, name string, data []byte) error {
	p, err := f.path(name)
	if err != nil {
		return unavailable(TypeFile, "set", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return unavailable(TypeFile, "set", name, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return unavailable(TypeFile, "set", name, err)
	}
	return nil
}

// Remove deletes the record file.
func (f *File) Remove(_ context.Context, name string) error {
	p, err := f.path(name)
	if err != nil {
		return unavailable(TypeFile, "remove", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return unavailable(TypeFile, "remove", name, err)
	}
	return nil
}

// Close is a no-op; records stay on disk for the next run of the session.
func (f *File) Close() error {
	return nil
}
