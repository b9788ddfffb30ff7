package tester

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/webp"
)

// ErrNoPreview means the bytes could not be decoded as a supported image.
var ErrNoPreview = errors.New("preview unavailable")

// ImagePreview describes a decoded image for display next to the upload form.
type ImagePreview struct {
	Format  string
	Width   int
	Height  int
	Size    int
	DataURI string
}

// Preview decodes just the image header of data (jpeg, png or webp) and
// builds an inline data URI. A failure never blocks the upload itself.
func Preview(data []byte) (*ImagePreview, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPreview, err)
	}
	return &ImagePreview{
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Size:    len(data),
		DataURI: "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Caption is the one-line summary shown under the preview.
func (p *ImagePreview) Caption(filename string) string {
	return fmt.Sprintf("%s, %dx%d %s, %s", filename, p.Width, p.Height, p.Format, humanize.IBytes(uint64(p.Size)))
}
