package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the path-style requests minio-go issues for one bucket.
type fakeS3 struct {
	mu            sync.Mutex
	bucket        string
	created       bool
	denyHeadCalls int
	objects       map[string][]byte
	contentTypes  map[string]string
	makeBucket    int
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Has("location"):
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
	case r.Method == http.MethodHead && key == "":
		if f.denyHeadCalls > 0 {
			f.denyHeadCalls--
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if !f.created {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.makeBucket++
		f.created = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, err := readS3Body(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.objects[key] = body
		f.contentTypes[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// readS3Body decodes aws-chunked uploads, which minio-go uses over plain HTTP.
func readS3Body(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return raw, nil
	}

	var out bytes.Buffer
	br := bufio.NewReader(bytes.NewReader(raw))
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, br, size); err != nil {
			return nil, err
		}
		if _, err := br.Discard(2); err != nil {
			return nil, err
		}
	}
}

func TestS3SinkSaveCreatesBucketAndUploads(t *testing.T) {
	fake := newFakeS3("results")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	sink, err := NewS3Sink(strings.TrimPrefix(srv.URL, "http://"), "key", "secret", "results", false)
	require.NoError(t, err)

	location, err := sink.Save(context.Background(), "cat_gradient.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "s3://results/cat_gradient.png", location)

	location, err = sink.Save(context.Background(), "dir/dog_gradient.png", "image/png", []byte("more"))
	require.NoError(t, err)
	assert.Equal(t, "s3://results/dog_gradient.png", location)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.makeBucket)
	assert.Equal(t, "png-bytes", string(fake.objects["cat_gradient.png"]))
	assert.Equal(t, "more", string(fake.objects["dog_gradient.png"]))
	assert.Equal(t, "image/png", fake.contentTypes["cat_gradient.png"])
}

func TestS3SinkRetriesBucketCheckAfterFailure(t *testing.T) {
	fake := newFakeS3("results")
	fake.created = true
	fake.denyHeadCalls = 1
	srv := httptest.NewServer(fake)
	defer srv.Close()

	sink, err := NewS3Sink(strings.TrimPrefix(srv.URL, "http://"), "key", "secret", "results", false)
	require.NoError(t, err)

	_, err = sink.Save(context.Background(), "a_gradient.png", "image/png", []byte("a"))
	require.Error(t, err)

	_, err = sink.Save(context.Background(), "a_gradient.png", "image/png", []byte("a"))
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Zero(t, fake.makeBucket)
	assert.Equal(t, "a", string(fake.objects["a_gradient.png"]))
}

func TestAzureBlobSinkSaveUploadsBlockBlob(t *testing.T) {
	var (
		mu          sync.Mutex
		gotPath     string
		gotBody     []byte
		gotType     string
		gotBlobType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotBody = body
		gotType = r.Header.Get("X-Ms-Blob-Content-Type")
		gotBlobType = r.Header.Get("X-Ms-Blob-Type")
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink, err := NewAzureBlobSinkWithServiceURL(srv.URL+"/devstoreaccount1/", "devstoreaccount1", "c2VjcmV0", "results")
	require.NoError(t, err)

	location, err := sink.Save(context.Background(), "cat_gradient.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/devstoreaccount1/results/cat_gradient.png", location)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/devstoreaccount1/results/cat_gradient.png", gotPath)
	assert.Equal(t, "png-bytes", string(gotBody))
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "BlockBlob", gotBlobType)
}
