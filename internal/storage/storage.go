// Package storage is the asset host that keeps uploaded images outside the database.
package storage

import (
	"context"
	"io"
)

// Asset identifies an uploaded blob: the public URL and the opaque id used to delete it.
type Asset struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type AssetHost interface {
	Upload(ctx context.Context, name string, data io.Reader, contentType string) (Asset, error)
	Delete(ctx context.Context, id string) error
}
