package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte("gradient"), 100)
	a := models.ImageInputFromBytes("a.png", "image/png", data)
	b := models.ImageInputFromBytes("other-name.png", "image/png", append([]byte(nil), data...))

	first, err := Fingerprint(a)
	require.NoError(t, err)
	second, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Len(t, first, Length)
	assert.Equal(t, first, second)
}

func TestFingerprintMatchesSHA256Prefix(t *testing.T) {
	data := []byte("hello")
	sum := sha256.Sum256(data)

	got, err := Fingerprint(models.ImageInputFromBytes("", "", data))
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sum[:])[:8], got)
}

func TestFingerprintOnlyReadsPrefix(t *testing.T) {
	prefix := bytes.Repeat([]byte{0xAB}, PrefixSize)
	short := append(append([]byte(nil), prefix...), []byte("tail-one")...)
	long := append(append([]byte(nil), prefix...), bytes.Repeat([]byte("tail-two"), 1000)...)

	a, err := Fingerprint(models.ImageInputFromBytes("", "", short))
	require.NoError(t, err)
	b, err := Fingerprint(models.ImageInputFromBytes("", "", long))
	require.NoError(t, err)

	assert.Equal(t, a, b, "bytes past the prefix must not change the fingerprint")

	c, err := Fingerprint(models.ImageInputFromBytes("", "", prefix[:PrefixSize-1]))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

type failingSource struct{}

func (failingSource) Open() (io.ReadCloser, error) { return nil, errors.New("stream unavailable") }

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestFingerprintErrors(t *testing.T) {
	_, err := Fingerprint(models.NewImageInput("x.png", "image/png", 10, failingSource{}))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeFingerprint))

	_, err = Fingerprint(models.ImageInput{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeFingerprint))

	_, err = FromReader(brokenReader{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeFingerprint))
}
