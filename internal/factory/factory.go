package factory

import (
	"fmt"
	"strings"

	"github.com/anime-shed/gradient-fade/internal/analyzer"
	"github.com/anime-shed/gradient-fade/internal/config"
	"github.com/anime-shed/gradient-fade/internal/remote"
	"github.com/anime-shed/gradient-fade/internal/storage"
)

// SinkType represents the download targets a result can be written to
type SinkType string

const (
	// LocalSink writes into a directory
	LocalSink SinkType = config.DownloadTargetLocal
	// AzureSink uploads to Azure blob storage
	AzureSink SinkType = config.DownloadTargetAzure
	// S3Sink uploads to an S3-compatible bucket
	S3Sink SinkType = config.DownloadTargetS3
)

// StorageFactory creates the fetcher for pasted URLs and the download sinks
type StorageFactory interface {
	CreateFetcher() storage.ImageFetcher
	CreateSink(sinkType SinkType) (storage.Sink, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

func (f *storageFactory) CreateFetcher() storage.ImageFetcher {
	return storage.NewHTTPImageFetcher(f.cfg.PasteFetchTimeout, f.cfg.MaxImageBytes)
}

// CreateSink creates a sink based on the specified type
func (f *storageFactory) CreateSink(sinkType SinkType) (storage.Sink, error) {
	switch SinkType(strings.ToLower(strings.TrimSpace(string(sinkType)))) {
	case LocalSink:
		return storage.NewLocalSink(f.cfg.DownloadDir), nil
	case AzureSink:
		return storage.NewAzureBlobSink(f.cfg.Azure.AccountName, f.cfg.Azure.AccountKey, f.cfg.Azure.Container)
	case S3Sink:
		return storage.NewS3Sink(f.cfg.S3.Endpoint, f.cfg.S3.AccessKey, f.cfg.S3.SecretKey, f.cfg.S3.Bucket, f.cfg.S3.UseSSL)
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", sinkType)
	}
}

// ProcessorFactory creates the client for the processing endpoint
type ProcessorFactory interface {
	CreateProcessor() remote.Processor
}

type processorFactory struct {
	cfg       *config.Config
	inspector analyzer.ImageInspector
}

// NewProcessorFactory creates a new processor factory
func NewProcessorFactory(cfg *config.Config, inspector analyzer.ImageInspector) ProcessorFactory {
	return &processorFactory{cfg: cfg, inspector: inspector}
}

func (f *processorFactory) CreateProcessor() remote.Processor {
	return remote.NewClient(remote.Options{
		Endpoint:  f.cfg.ProcessEndpoint,
		FieldName: f.cfg.ImageFieldName,
		LogoPath:  f.cfg.LogoPath,
		Timeout:   f.cfg.SubmitTimeout,
		MaxBytes:  f.cfg.MaxImageBytes,
	}, f.inspector)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory   StorageFactory
	ProcessorFactory ProcessorFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config, inspector analyzer.ImageInspector) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory:   NewStorageFactory(cfg),
		ProcessorFactory: NewProcessorFactory(cfg, inspector),
	}
}
