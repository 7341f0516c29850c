package models

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroImageInputIsAbsent(t *testing.T) {
	var in ImageInput
	assert.True(t, in.IsZero())

	_, err := in.Open()
	assert.Error(t, err)
}

func TestImageInputFromBytes(t *testing.T) {
	in := ImageInputFromBytes("photo.png", "image/png", []byte("abcdef"))

	assert.False(t, in.IsZero())
	assert.Equal(t, "photo.png", in.Name())
	assert.Equal(t, "image/png", in.MIMEType())
	assert.Equal(t, int64(6), in.Size())

	// every Open starts from the beginning
	for i := 0; i < 2; i++ {
		rc, err := in.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "abcdef", string(data))
	}
}

func TestImageInputReadAllLimit(t *testing.T) {
	in := ImageInputFromBytes("", "image/png", []byte("0123456789"))

	data, err := in.ReadAll(10)
	require.NoError(t, err)
	assert.Len(t, data, 10)

	_, err = in.ReadAll(9)
	assert.Error(t, err)

	data, err = in.ReadAll(0)
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestImageInputFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpegdata"), 0o644))

	in, err := ImageInputFromFile(path, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", in.Name())
	assert.Equal(t, int64(8), in.Size())

	data, err := in.ReadAll(0)
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))

	_, err = ImageInputFromFile(filepath.Join(dir, "missing.jpg"), "")
	assert.Error(t, err)

	_, err = ImageInputFromFile(dir, "")
	assert.Error(t, err)
}

func TestClipboardItemAsFile(t *testing.T) {
	img := ImageInputFromBytes("image.png", "image/png", []byte{1})

	file, ok := ClipboardItem{Kind: ClipboardKindFile, Type: "image/png", File: &img}.AsFile()
	assert.True(t, ok)
	assert.Equal(t, "image.png", file.Name())

	_, ok = ClipboardItem{Kind: ClipboardKindString, Type: "text/plain"}.AsFile()
	assert.False(t, ok)

	_, ok = ClipboardItem{Kind: ClipboardKindFile, Type: "image/png"}.AsFile()
	assert.False(t, ok)
}

func TestSubmissionStateString(t *testing.T) {
	assert.Equal(t, "no_input", StateNoInput.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "complete", StateComplete.String())
}

func TestSubmissionStateTextRoundTrip(t *testing.T) {
	var s SubmissionState
	require.NoError(t, s.UnmarshalText([]byte("submitting")))
	assert.Equal(t, StateSubmitting, s)
	assert.Error(t, s.UnmarshalText([]byte("done")))
}

func TestChannelIsPaste(t *testing.T) {
	assert.False(t, ChannelFilePicker.IsPaste())
	assert.True(t, ChannelClipboardItem.IsPaste())
	assert.True(t, ChannelClipboardFile.IsPaste())
	assert.True(t, ChannelClipboardURL.IsPaste())
}
