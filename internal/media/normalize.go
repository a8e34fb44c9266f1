// Package media validates uploaded pictures and re-encodes them to a bounded size.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// Normalized is a re-encoded image ready for upload.
type Normalized struct {
	Name        string
	ContentType string
	Data        *bytes.Buffer
	Width       int
	Height      int
}

// Normalizer decodes images, applies EXIF orientation, fits them inside MaxDimension
// and re-encodes PNG as PNG and everything else as JPEG.
type Normalizer struct {
	MaxDimension int
	MaxBytes     int64
}

func NewNormalizer(maxDimension int, maxBytes int64) *Normalizer {
	return &Normalizer{MaxDimension: maxDimension, MaxBytes: maxBytes}
}

func (n *Normalizer) Normalize(name string, r io.Reader) (*Normalized, error) {
	if n.MaxBytes > 0 {
		r = io.LimitReader(r, n.MaxBytes+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if n.MaxBytes > 0 && int64(len(raw)) > n.MaxBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrUnsupportedImage, n.MaxBytes)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if n.MaxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > n.MaxDimension || b.Dy() > n.MaxDimension {
			img = imaging.Fit(img, n.MaxDimension, n.MaxDimension, imaging.Lanczos)
		}
	}

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "image"
	}
	out := &Normalized{Data: &bytes.Buffer{}, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if strings.EqualFold(filepath.Ext(name), ".png") {
		out.Name, out.ContentType = base+".png", "image/png"
		err = imaging.Encode(out.Data, img, imaging.PNG)
	} else {
		out.Name, out.ContentType = base+".jpg", "image/jpeg"
		err = imaging.Encode(out.Data, img, imaging.JPEG, imaging.JPEGQuality(85))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return out, nil
}
