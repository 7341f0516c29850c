package main

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/anime-shed/gradient-fade/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))))
	return buf.Bytes()
}

func setupEnv(t *testing.T, endpoint string) string {
	t.Helper()
	dir := t.TempDir()
	chdirForTest(t, dir)
	t.Setenv("PROCESS_ENDPOINT", endpoint)
	t.Setenv("DOWNLOAD_TARGET", "local")
	t.Setenv("DOWNLOAD_DIR", dir)
	t.Setenv("TRACE_EXPORTER", "none")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func newBackend(t *testing.T, result []byte, posts *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(posts, 1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, args...)
	return out, err
}

func runWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), errOut.String(), err
}

func TestSubmitCommandSavesResult(t *testing.T) {
	img := pngBytes(t)
	var posts int32
	backend := newBackend(t, img, &posts)
	dir := setupEnv(t, backend.URL)

	src := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(src, img, 0o644))

	location, err := run(t, "submit", src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cat_gradient.png"), location)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))

	saved, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, img, saved)
}

func TestURLCommandFetchesPastedImage(t *testing.T) {
	img := pngBytes(t)
	var posts int32
	backend := newBackend(t, img, &posts)
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	defer images.Close()
	dir := setupEnv(t, backend.URL)

	location, err := run(t, "url", "  "+images.URL+"/photo  ")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pasted_image_gradient.png"), location)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))
}

func TestURLCommandRejectsPlainText(t *testing.T) {
	var posts int32
	backend := newBackend(t, nil, &posts)
	setupEnv(t, backend.URL)

	_, err := run(t, "url", "just some words")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paste ignored")
	assert.Zero(t, atomic.LoadInt32(&posts))
}

func TestEndpointFlagOverridesEnvironment(t *testing.T) {
	img := pngBytes(t)
	var posts int32
	backend := newBackend(t, img, &posts)
	dir := setupEnv(t, "http://127.0.0.1:1/unused")

	src := filepath.Join(dir, "dog.png")
	require.NoError(t, os.WriteFile(src, img, 0o644))

	_, err := run(t, "--endpoint", backend.URL, "submit", src)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))
}

func TestSubmitCommandRequiresFile(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1/unused")
	_, err := run(t, "submit")
	assert.Error(t, err)
}

func TestLogsGoToStderr(t *testing.T) {
	img := pngBytes(t)
	var posts int32
	backend := newBackend(t, img, &posts)
	dir := setupEnv(t, backend.URL)
	t.Setenv("LOG_LEVEL", "info")

	src := filepath.Join(dir, "bird.png")
	require.NoError(t, os.WriteFile(src, img, 0o644))

	out, errOut, err := runWithStderr(t, "submit", src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bird_gradient.png"), out)
	assert.Contains(t, errOut, "result saved")
}
