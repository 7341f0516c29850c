package analyzer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var formatContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

type headerInspector struct{}

// NewImageInspector returns the decoder-backed inspector.
func NewImageInspector() ImageInspector {
	return headerInspector{}
}

// Inspect decodes only the image header.
func (headerInspector) Inspect(data []byte) (ImageInfo, error) {
	return Inspect(data)
}

// Thumbnail decodes the image and fits it inside the given box, keeping the
// aspect ratio. Images already inside the box are returned as decoded.
func (headerInspector) Thumbnail(data []byte, maxWidth, maxHeight int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img, nil
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos), nil
}

// Inspect reads the header of an encoded image. An empty or undecodable body
// is an error.
func Inspect(data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, fmt.Errorf("empty image body")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}

	contentType, ok := formatContentTypes[format]
	if !ok {
		contentType = "image/" + format
	}
	return ImageInfo{
		Format:      format,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
