package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"confkeeper/pkg/logging"
)

// FileSystem is the persistence contract the engine depends on.
type FileSystem interface {
	Exists(path string) bool
	ReadText(path string) (string, error)
	WriteText(path, content string) error
	Copy(srcPath, destPath string) error
	ModTime(path string) (time.Time, error)
}

// Storage implements FileSystem on top of an afero filesystem.
// Writes go to a temporary sibling file that is renamed over the target, so a
// failed write never leaves a truncated configuration behind.
type Storage struct {
	mu sync.RWMutex
	fs afero.Fs
}

// NewStorage creates a Storage backed by the operating system filesystem.
func NewStorage() *Storage {
	return NewStorageWithFs(afero.NewOsFs())
}

// NewStorageWithFs creates a Storage backed by the given afero filesystem.
// Tests pass afero.NewMemMapFs().
func NewStorageWithFs(fsys afero.Fs) *Storage {
	return &Storage{fs: fsys}
}

// Exists reports whether path exists.
func (s *Storage) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.fs.Stat(path)
	return err == nil
}

// ReadText returns the content of path.
func (s *Storage) ReadText(path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("file %s not found: %w", path, err)
		}
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(data), nil
}

// WriteText replaces the content of path, creating parent directories as needed.
func (s *Storage) WriteText(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(path, []byte(content)); err != nil {
		return err
	}
	logging.Debug("Storage", "Wrote %d bytes to %s", len(content), path)
	return nil
}

// Copy duplicates srcPath to destPath byte for byte.
func (s *Storage) Copy(srcPath, destPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, srcPath)
	if err != nil {
		return fmt.Errorf("failed to read copy source %s: %w", srcPath, err)
	}
	if err := s.writeLocked(destPath, data); err != nil {
		return err
	}
	logging.Debug("Storage", "Copied %s to %s", srcPath, destPath)
	return nil
}

// ModTime returns the modification time of path.
func (s *Storage) ModTime(path string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.fs.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// writeLocked performs the atomic write. Callers must hold the write lock.
func (s *Storage) writeLocked(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	if err := s.fs.Chmod(tmpName, 0644); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace file %s: %w", path, err)
	}
	return nil
}
