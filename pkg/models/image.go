package models

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ByteSource yields a fresh reader over an image's bytes on every call.
type ByteSource interface {
	Open() (io.ReadCloser, error)
}

// ImageInput is the canonical representation of the current image, whichever
// channel it arrived through. It is never mutated after construction; the
// zero value means "no input".
type ImageInput struct {
	source   ByteSource
	size     int64
	name     string
	mimeType string
}

// NewImageInput wraps an arbitrary byte source.
func NewImageInput(name, mimeType string, size int64, source ByteSource) ImageInput {
	return ImageInput{
		source:   source,
		size:     size,
		name:     name,
		mimeType: mimeType,
	}
}

// ImageInputFromBytes wraps an in-memory buffer. The slice must not be modified afterwards.
func ImageInputFromBytes(name, mimeType string, data []byte) ImageInput {
	return NewImageInput(name, mimeType, int64(len(data)), bytesSource(data))
}

// ImageInputFromFile references a file on disk without reading it. The declared
// name is the file's base name.
func ImageInputFromFile(path, mimeType string) (ImageInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ImageInput{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ImageInput{}, fmt.Errorf("%s is a directory", path)
	}
	return NewImageInput(filepath.Base(path), mimeType, info.Size(), fileSource(path)), nil
}

func (i ImageInput) IsZero() bool     { return i.source == nil }
func (i ImageInput) Name() string     { return i.name }
func (i ImageInput) MIMEType() string { return i.mimeType }
func (i ImageInput) Size() int64      { return i.size }

// Open returns a reader positioned at the first byte.
func (i ImageInput) Open() (io.ReadCloser, error) {
	if i.source == nil {
		return nil, fmt.Errorf("image input has no byte source")
	}
	return i.source.Open()
}

// ReadAll reads the whole image, failing when it exceeds limit bytes. A
// non-positive limit disables the check.
func (i ImageInput) ReadAll(limit int64) ([]byte, error) {
	rc, err := i.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if limit <= 0 {
		return io.ReadAll(rc)
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

type bytesSource []byte

func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fileSource string

func (f fileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}
