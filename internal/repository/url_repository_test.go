package repository

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() PastedURLRepository {
	return NewHTTPPastedURLRepository(nil, storage.NewHTTPImageFetcher(5*time.Second, 1<<20))
}

func TestResolveWrapsImageResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/WEBP; foo=bar")
		w.Write([]byte("webp-bytes"))
	}))
	defer server.Close()

	input, err := newRepo().Resolve(context.Background(), "  "+server.URL+"/x  ")
	require.NoError(t, err)

	assert.Equal(t, "pasted_image.webp", input.Name())
	assert.Equal(t, "image/webp", input.MIMEType())
	assert.Equal(t, int64(10), input.Size())

	rc, err := input.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "webp-bytes", string(data))
}

func TestResolveRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	input, err := newRepo().Resolve(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePasteResolution))
	assert.True(t, input.IsZero())
}

func TestResolveNonURLIssuesNoRequest(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	repo := newRepo()
	assert.False(t, repo.IsCandidate("hello world"))

	_, err := repo.Resolve(context.Background(), "look at "+server.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePasteResolution))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}
