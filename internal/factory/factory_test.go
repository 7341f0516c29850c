package factory

import (
	"testing"
	"time"

	"github.com/anime-shed/gradient-fade/internal/analyzer"
	"github.com/anime-shed/gradient-fade/internal/config"
	"github.com/anime-shed/gradient-fade/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		ProcessEndpoint:   "http://127.0.0.1:5000/process",
		ImageFieldName:    "image",
		SubmitTimeout:     time.Second,
		PasteFetchTimeout: time.Second,
		MaxImageBytes:     1024,
		DownloadDir:       t.TempDir(),
		Azure:             config.AzureConfig{AccountName: "acct", AccountKey: "c2VjcmV0", Container: "results"},
		S3:                config.S3Config{Endpoint: "localhost:9000", Bucket: "results"},
	}
}

func TestCreateSink(t *testing.T) {
	f := NewComponentFactory(testConfig(t), analyzer.NewImageInspector())

	tests := []struct {
		sinkType SinkType
		wantKind string
	}{
		{LocalSink, "local"},
		{"  LOCAL ", "local"},
		{AzureSink, "azure"},
		{S3Sink, "s3"},
	}
	for _, tt := range tests {
		sink, err := f.StorageFactory.CreateSink(tt.sinkType)
		require.NoError(t, err, tt.sinkType)
		assert.Equal(t, tt.wantKind, sink.Kind())
	}

	_, err := f.StorageFactory.CreateSink("dropbox")
	assert.Error(t, err)
}

func TestCreateFetcherAndProcessor(t *testing.T) {
	f := NewComponentFactory(testConfig(t), nil)

	_, ok := f.StorageFactory.CreateFetcher().(*storage.HTTPImageFetcher)
	assert.True(t, ok)
	assert.NotNil(t, f.ProcessorFactory.CreateProcessor())
}
