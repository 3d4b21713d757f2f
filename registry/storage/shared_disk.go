package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SharedDiskStorage keeps objects as plain files below a root directory, for
// example a volume shared by every server replica.
type SharedDiskStorage struct {
	root string
}

func NewSharedDisk(root string) Storage {
	slog.Info("using shared disk storage", "root", root)
	return &SharedDiskStorage{root: filepath.Clean(root)}
}

// resolve maps an object key to a file below the root. Keys are always treated
// as relative so ".." segments cannot leave the root.
func (s *SharedDiskStorage) resolve(key string) (string, error) {
	file := filepath.Join(s.root, filepath.Clean("/"+key))
	if file == s.root || !strings.HasPrefix(file, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return file, nil
}

func (s *SharedDiskStorage) Read(key string) (io.ReadCloser, error) {
	file, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("unable to open stored object", "key", key, "error", err)
		}
		return nil, fmt.Errorf("error reading object %v: %w", key, err)
	}
	return f, nil
}

// Write replaces the object at key. Data goes to a temporary file first so a
// failed write never leaves a truncated object behind.
func (s *SharedDiskStorage) Write(key string, data io.Reader) error {
	file, err := s.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("unable to create object directory", "dir", dir, "error", err)
		return fmt.Errorf("error creating directory for object %v: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		slog.Error("unable to create temporary object file", "key", key, "error", err)
		return fmt.Errorf("error writing object %v: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		slog.Error("unable to write object data", "key", key, "error", err)
		return fmt.Errorf("error writing object %v: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing object %v: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), file); err != nil {
		slog.Error("unable to move object into place", "key", key, "error", err)
		return fmt.Errorf("error writing object %v: %w", key, err)
	}
	return nil
}

// Delete removes the object at key. Deleting a missing object is not an error.
func (s *SharedDiskStorage) Delete(key string) error {
	file, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(file); err != nil {
		slog.Error("unable to delete stored object", "key", key, "error", err)
		return fmt.Errorf("error deleting object %v: %w", key, err)
	}
	return nil
}

func (s *SharedDiskStorage) Exists(key string) (bool, error) {
	file, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(file)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("error checking object %v: %w", key, err)
	}
}

func (s *SharedDiskStorage) Location() string {
	return s.root
}
