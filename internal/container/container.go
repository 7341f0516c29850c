package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anime-shed/gradient-fade/internal/analyzer"
	"github.com/anime-shed/gradient-fade/internal/config"
	"github.com/anime-shed/gradient-fade/internal/factory"
	"github.com/anime-shed/gradient-fade/internal/handle"
	"github.com/anime-shed/gradient-fade/internal/intake"
	"github.com/anime-shed/gradient-fade/internal/logger"
	"github.com/anime-shed/gradient-fade/internal/metrics"
	"github.com/anime-shed/gradient-fade/internal/observer"
	"github.com/anime-shed/gradient-fade/internal/repository"
	"github.com/anime-shed/gradient-fade/internal/service"
	"github.com/anime-shed/gradient-fade/internal/storage"
	"github.com/anime-shed/gradient-fade/internal/telemetry"
	"github.com/anime-shed/gradient-fade/internal/transport"
	"github.com/anime-shed/gradient-fade/pkg/validation"

	"github.com/sirupsen/logrus"
)

const serviceName = "gradient-fade"

var setupTracing = telemetry.SetupTracing

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	metrics         *metrics.Metrics
	events          *observer.EventPublisher
	coordinator     *service.Coordinator
	normalizer      *intake.Normalizer
	sink            storage.Sink
	handler         http.Handler
	shutdownTracing func(context.Context) error
}

// NewContainer builds the dependency graph for cfg
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	shutdownTracing, err := setupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  serviceName,
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	m := metrics.New()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(observer.NewMetricsObserver(m))

	inspector := analyzer.NewImageInspector()
	components := factory.NewComponentFactory(cfg, inspector)

	sink, err := components.StorageFactory.CreateSink(factory.SinkType(cfg.DownloadTarget))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create download sink: %w", err), shutdownTracing(ctx))
	}

	registry := handle.NewRegistry()
	registry.OnRelease(func(h handle.Handle) {
		logger.WithFields(logrus.Fields{"handle_id": h.ID, "size": h.Size}).Debug("Result bytes freed")
	})

	coordinator := service.NewCoordinator(
		components.ProcessorFactory.CreateProcessor(),
		registry,
		events,
		cfg.SubmitTimeout,
	)
	urls := repository.NewHTTPPastedURLRepository(newPasteValidator(cfg), components.StorageFactory.CreateFetcher())
	normalizer := intake.NewNormalizer(coordinator, urls, events)

	handler := transport.NewHandler(transport.Dependencies{
		Coordinator: coordinator,
		Normalizer:  normalizer,
		Inspector:   inspector,
		Metrics:     m,
		Config:      cfg,
	})

	return &Container{
		config:          cfg,
		metrics:         m,
		events:          events,
		coordinator:     coordinator,
		normalizer:      normalizer,
		sink:            sink,
		handler:         handler,
		shutdownTracing: shutdownTracing,
	}, nil
}

func newPasteValidator(cfg *config.Config) *validation.URLValidator {
	if len(cfg.PasteAllowedHosts) == 0 {
		return validation.NewURLValidator()
	}
	return validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.PasteAllowedHosts)
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Coordinator() *service.Coordinator {
	return c.coordinator
}

func (c *Container) Normalizer() *intake.Normalizer {
	return c.normalizer
}

func (c *Container) Sink() storage.Sink {
	return c.sink
}

func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Close releases the live result handle and flushes traces
func (c *Container) Close(ctx context.Context) error {
	return errors.Join(c.coordinator.Close(), c.shutdownTracing(ctx))
}
