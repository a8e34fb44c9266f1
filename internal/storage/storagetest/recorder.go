// Package storagetest provides an in-memory AssetHost that records calls.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"refurbstock/internal/storage"
)

var ErrUploadFailed = errors.New("upload failed")

type Recorder struct {
	mu        sync.Mutex
	next      int
	Uploaded  []storage.Asset
	Deleted   []string
	Blobs     map[string][]byte
	FailAfter int // when > 0, uploads past this count fail
	FailAll   bool
	DeleteErr error
}

func NewRecorder() *Recorder {
	return &Recorder{Blobs: map[string][]byte{}}
}

func (r *Recorder) Upload(ctx context.Context, name string, data io.Reader, contentType string) (storage.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailAll || (r.FailAfter > 0 && len(r.Uploaded) >= r.FailAfter) {
		return storage.Asset{}, ErrUploadFailed
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return storage.Asset{}, err
	}
	r.next++
	a := storage.Asset{ID: fmt.Sprintf("asset-%d", r.next), URL: fmt.Sprintf("https://cdn.test/asset-%d", r.next)}
	r.Uploaded = append(r.Uploaded, a)
	r.Blobs[a.ID] = b
	return a, nil
}

func (r *Recorder) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Deleted = append(r.Deleted, id)
	delete(r.Blobs, id)
	return r.DeleteErr
}

// DeletedIDs returns a copy of the ids passed to Delete.
func (r *Recorder) DeletedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Deleted...)
}
