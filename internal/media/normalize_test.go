package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeFitsLargeImages(t *testing.T) {
	n := NewNormalizer(100, 0)
	out, err := n.Normalize("lid.png", bytes.NewReader(pngBytes(t, 400, 200)))
	require.NoError(t, err)

	assert.Equal(t, "lid.png", out.Name)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 50, out.Height)
	assert.NotZero(t, out.Data.Len())
}

func TestNormalizeReencodesAsJPEG(t *testing.T) {
	n := NewNormalizer(1000, 0)
	out, err := n.Normalize("scan.gif", bytes.NewReader(pngBytes(t, 20, 10)))
	require.NoError(t, err)

	assert.Equal(t, "scan.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, 20, out.Width)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer(100, 0)
	_, err := n.Normalize("x.png", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestNormalizeRejectsOversized(t *testing.T) {
	data := pngBytes(t, 50, 50)
	n := NewNormalizer(100, int64(len(data)-1))
	_, err := n.Normalize("x.png", bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
