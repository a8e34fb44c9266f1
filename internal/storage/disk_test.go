package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	disk, err := NewDisk(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	asset, err := disk.Upload(ctx, "front.JPG", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(asset.ID, ".jpg"))
	assert.Equal(t, "http://localhost:8080/uploads/"+asset.ID, asset.URL)

	data, err := os.ReadFile(filepath.Join(dir, asset.ID))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, disk.Delete(ctx, asset.ID))
	_, err = os.Stat(filepath.Join(dir, asset.ID))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, disk.Delete(ctx, asset.ID))
}

func TestDiskDeleteRejectsTraversal(t *testing.T) {
	disk, err := NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	assert.Error(t, disk.Delete(context.Background(), "../etc/passwd"))
	assert.Error(t, disk.Delete(context.Background(), ""))
}
