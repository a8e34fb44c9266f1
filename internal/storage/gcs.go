package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCS stores assets as objects in a Google Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCS connects to the bucket. credentialsFile may be empty to use ambient credentials.
func NewGCS(ctx context.Context, bucket, prefix, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (g *GCS) objectName(name string) string {
	obj := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	if g.prefix != "" {
		obj = g.prefix + "/" + obj
	}
	return obj
}

func (g *GCS) Upload(ctx context.Context, name string, data io.Reader, contentType string) (Asset, error) {
	obj := g.objectName(name)

	w := g.client.Bucket(g.bucket).Object(obj).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return Asset{}, fmt.Errorf("failed to upload %s: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		return Asset{}, fmt.Errorf("failed to finalize %s: %w", obj, err)
	}

	return Asset{
		URL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, obj),
		ID:  obj,
	}, nil
}

func (g *GCS) Delete(ctx context.Context, id string) error {
	err := g.client.Bucket(g.bucket).Object(id).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
