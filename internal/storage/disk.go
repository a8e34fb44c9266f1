package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk keeps assets under a base directory served at publicURL.
type Disk struct {
	basepath  string
	publicURL string
}

func NewDisk(basepath, publicURL string) (*Disk, error) {
	if err := os.MkdirAll(basepath, 0o755); err != nil {
		return nil, fmt.Errorf("error creating asset directory %v: %w", basepath, err)
	}
	return &Disk{basepath: basepath, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root is the directory assets are written to.
func (d *Disk) Root() string {
	return d.basepath
}

func (d *Disk) Upload(ctx context.Context, name string, data io.Reader, contentType string) (Asset, error) {
	id := uuid.NewString() + strings.ToLower(filepath.Ext(name))

	file, err := os.Create(filepath.Join(d.basepath, id))
	if err != nil {
		return Asset{}, fmt.Errorf("error opening file %v: %w", id, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		_ = os.Remove(file.Name())
		return Asset{}, fmt.Errorf("error writing to file %v: %w", id, err)
	}

	return Asset{URL: d.publicURL + "/" + id, ID: id}, nil
}

// Delete removes the asset. Missing assets are not an error.
func (d *Disk) Delete(ctx context.Context, id string) error {
	if id == "" || id != path.Base(id) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid asset id %q", id)
	}
	err := os.Remove(filepath.Join(d.basepath, id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error deleting file %v: %w", id, err)
	}
	return nil
}
