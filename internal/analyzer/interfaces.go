package analyzer

import "image"

// ImageInspector validates image bytes without fully decoding them and
// renders previews.
type ImageInspector interface {
	Inspect(data []byte) (ImageInfo, error)
	Thumbnail(data []byte, maxWidth, maxHeight int) (image.Image, error)
}
