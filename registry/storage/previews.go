package storage

import (
	"civicore/registry/schema"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const previewDir = "previews"

// Previews keeps document preview images, received as data URLs, outside the
// database. Objects are addressed by an opaque key.
type Previews struct {
	store Storage
}

func NewPreviews(store Storage) *Previews {
	return &Previews{store: store}
}

// ValidateDataURL checks for a base64 encoded image data URL.
func ValidateDataURL(dataURL string) error {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return fmt.Errorf("%w: preview must be a base64 image data url", schema.ErrInvalidInput)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return fmt.Errorf("%w: preview payload is not valid base64", schema.ErrInvalidInput)
	}
	return nil
}

func previewPath(key string) (string, error) {
	if _, err := uuid.Parse(key); err != nil {
		return "", fmt.Errorf("invalid preview key '%v'", key)
	}
	return filepath.Join(previewDir, key), nil
}

func (p *Previews) Save(dataURL string) (string, error) {
	if err := ValidateDataURL(dataURL); err != nil {
		return "", err
	}

	key := uuid.New().String()
	path, _ := previewPath(key)
	if err := p.store.Write(path, strings.NewReader(dataURL)); err != nil {
		return "", fmt.Errorf("error saving preview: %w", err)
	}
	return key, nil
}

// Load returns the stored data URL, or "" when the object is gone.
func (p *Previews) Load(key string) (string, error) {
	path, err := previewPath(key)
	if err != nil {
		return "", err
	}

	file, err := p.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("error reading preview %v: %w", key, err)
	}
	return string(data), nil
}

// Delete removes the preview. A missing object is not an error.
func (p *Previews) Delete(key string) error {
	path, err := previewPath(key)
	if err != nil {
		return err
	}
	return p.store.Delete(path)
}
