package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anime-shed/gradient-fade/internal/analyzer"
	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/internal/fingerprint"
	"github.com/anime-shed/gradient-fade/internal/handle"
	"github.com/anime-shed/gradient-fade/internal/logger"
	"github.com/anime-shed/gradient-fade/internal/naming"
	"github.com/anime-shed/gradient-fade/internal/observer"
	"github.com/anime-shed/gradient-fade/internal/remote"
	"github.com/anime-shed/gradient-fade/pkg/models"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNoInput            = apperrors.NewValidationError("no image selected", nil)
	ErrSubmissionInFlight = apperrors.NewConflictError("a submission is already in flight", nil)
	ErrClosed             = apperrors.NewInternalError("coordinator is closed", nil)
)

// Coordinator owns the pipeline state: the current input, the in-flight
// flag and the single live result handle.
type Coordinator struct {
	processor     remote.Processor
	registry      *handle.Registry
	events        observer.Subject
	tracer        trace.Tracer
	submitTimeout time.Duration

	mu            sync.Mutex
	input         models.ImageInput
	channel       models.Channel
	displayID     string
	outputName    string
	generation    uint64
	submitting    bool
	result        *handle.Handle
	resultInfo    analyzer.ImageInfo
	resultVisible bool
	lastError     string
	closed        bool
}

// NewCoordinator creates a coordinator with no input. A zero submitTimeout
// leaves the deadline to the caller's context.
func NewCoordinator(processor remote.Processor, registry *handle.Registry, events observer.Subject, submitTimeout time.Duration) *Coordinator {
	if registry == nil {
		registry = handle.NewRegistry()
	}
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &Coordinator{
		processor:     processor,
		registry:      registry,
		events:        events,
		tracer:        otel.Tracer("gradient-fade/service"),
		submitTimeout: submitTimeout,
		outputName:    naming.DefaultOutputName,
	}
}

// Registry exposes the handle registry so result addresses can be resolved.
func (c *Coordinator) Registry() *handle.Registry {
	return c.registry
}

// ApplyInput makes input the current image. It is the single entry point for
// every channel: the previous result is hidden (not released) and the display
// identifier and output name are recomputed. Paste channels are refused with
// ErrSubmissionInFlight while a submission is running. A zero input clears.
func (c *Coordinator) ApplyInput(ctx context.Context, input models.ImageInput, channel models.Channel) error {
	if input.IsZero() {
		return c.Clear(ctx)
	}

	fp, fpErr := fingerprint.Fingerprint(input)
	if fpErr != nil {
		logger.WithFields(logrus.Fields{
			"input_name": input.Name(),
			"channel":    channel,
		}).WithError(fpErr).Debug("Fingerprint unavailable, using bare name")
	}
	displayID := naming.DeriveDisplayIdentifier(input.Name(), fp, fpErr)
	outputName := naming.DeriveOutputName(input.Name())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if channel.IsPaste() && c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.input = input
	c.channel = channel
	c.displayID = displayID
	c.outputName = outputName
	c.generation++
	c.resultVisible = false
	c.lastError = ""
	c.mu.Unlock()

	c.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:         observer.InputAccepted,
		Channel:           string(channel),
		DisplayIdentifier: displayID,
		OutputName:        outputName,
		Success:           true,
		Metadata: map[string]interface{}{
			"input_size":      input.Size(),
			"input_mime_type": input.MIMEType(),
		},
	})
	return nil
}

// Clear resets the input, identifier and output name to their defaults and
// hides any result.
func (c *Coordinator) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.input = models.ImageInput{}
	c.channel = ""
	c.displayID = ""
	c.outputName = naming.DefaultOutputName
	c.generation++
	c.resultVisible = false
	c.lastError = ""
	c.mu.Unlock()

	c.events.NotifyObservers(ctx, observer.PipelineEvent{EventType: observer.InputCleared, Success: true})
	return nil
}

// IsSubmitting reports whether a submission is in flight.
func (c *Coordinator) IsSubmitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit posts the current input to the processing endpoint. At most one
// submission runs at a time; a concurrent call fails fast with
// ErrSubmissionInFlight and issues no request. On success the new handle
// replaces the previous one, which is released. On failure the previous
// handle stays installed and the error is returned.
func (c *Coordinator) Submit(ctx context.Context) (handle.Handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return handle.Handle{}, ErrClosed
	}
	if c.input.IsZero() {
		c.mu.Unlock()
		return handle.Handle{}, ErrNoInput
	}
	if c.submitting {
		c.mu.Unlock()
		return handle.Handle{}, ErrSubmissionInFlight
	}
	c.submitting = true
	input := c.input
	generation := c.generation
	displayID := c.displayID
	outputName := c.outputName
	c.mu.Unlock()

	finished := false
	defer func() {
		if !finished {
			c.mu.Lock()
			c.submitting = false
			c.mu.Unlock()
		}
	}()

	ctx, span := c.tracer.Start(ctx, "pipeline.submit", trace.WithAttributes(
		attribute.String("input.name", input.Name()),
		attribute.String("input.mime_type", input.MIMEType()),
		attribute.Int64("input.size", input.Size()),
	))
	defer span.End()

	if c.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.submitTimeout)
		defer cancel()
	}

	c.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:         observer.SubmissionStarted,
		DisplayIdentifier: displayID,
		OutputName:        outputName,
	})
	start := time.Now()

	result, err := c.processor.Process(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")

		c.mu.Lock()
		if c.generation == generation {
			c.lastError = err.Error()
		}
		c.submitting = false
		finished = true
		c.mu.Unlock()

		c.events.NotifyObservers(ctx, observer.PipelineEvent{
			EventType:         observer.SubmissionFailed,
			DisplayIdentifier: displayID,
			Duration:          time.Since(start),
			ErrorMessage:      err.Error(),
		})
		return handle.Handle{}, err
	}

	h := c.registry.Allocate(result.Data, result.ContentType)
	span.SetAttributes(attribute.String("result.handle_id", h.ID), attribute.Int64("result.size", h.Size))

	c.mu.Lock()
	if c.closed {
		c.submitting = false
		finished = true
		c.mu.Unlock()
		// never installed, so no result_released event
		_ = c.registry.Release(h.ID)
		c.events.NotifyObservers(ctx, observer.PipelineEvent{
			EventType:         observer.SubmissionFailed,
			DisplayIdentifier: displayID,
			Duration:          time.Since(start),
			ErrorMessage:      ErrClosed.Error(),
		})
		return handle.Handle{}, ErrClosed
	}
	previous := c.result
	c.result = &h
	c.resultInfo = result.Info
	c.resultVisible = c.generation == generation
	c.lastError = ""
	c.submitting = false
	finished = true
	visible := c.resultVisible
	c.mu.Unlock()

	if previous != nil {
		c.release(ctx, *previous)
	}

	c.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:         observer.SubmissionCompleted,
		DisplayIdentifier: displayID,
		OutputName:        outputName,
		HandleID:          h.ID,
		Duration:          time.Since(start),
		Success:           true,
		Metadata: map[string]interface{}{
			"result_visible": visible,
			"result_format":  result.Info.Format,
		},
	})
	return h, nil
}

func (c *Coordinator) release(ctx context.Context, h handle.Handle) {
	if err := c.registry.Release(h.ID); err != nil {
		if !errors.Is(err, handle.ErrHandleNotFound) {
			logger.WithField("handle_id", h.ID).WithError(err).Warn("Failed to release result handle")
		}
		return
	}
	c.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType: observer.ResultReleased,
		HandleID:  h.ID,
		Success:   true,
	})
}

// CurrentInput returns the current image, if any.
func (c *Coordinator) CurrentInput() (models.ImageInput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input, !c.input.IsZero()
}

// VisibleResult returns the displayed result handle and the name a download
// of it should use.
func (c *Coordinator) VisibleResult() (handle.Handle, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil || !c.resultVisible {
		return handle.Handle{}, "", false
	}
	return *c.result, c.outputName, true
}

// Snapshot copies the state for the rendering boundary.
func (c *Coordinator) Snapshot() models.PipelineState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := models.PipelineState{
		HasInput:          !c.input.IsZero(),
		DisplayIdentifier: c.displayID,
		OutputName:        c.outputName,
		Submitting:        c.submitting,
		LastError:         c.lastError,
	}
	if s.HasInput {
		s.InputName = c.input.Name()
		s.InputMIMEType = c.input.MIMEType()
		s.InputSize = c.input.Size()
	}
	if c.result != nil && c.resultVisible {
		s.Result = &models.ResultInfo{
			HandleID:    c.result.ID,
			Address:     c.result.Address,
			ContentType: c.result.ContentType,
			Size:        c.result.Size,
			Format:      c.resultInfo.Format,
			Width:       c.resultInfo.Width,
			Height:      c.resultInfo.Height,
			CreatedAt:   c.result.CreatedAt,
		}
	}

	switch {
	case c.submitting:
		s.State = models.StateSubmitting
	case !s.HasInput:
		s.State = models.StateNoInput
	case s.Result != nil:
		s.State = models.StateComplete
	default:
		s.State = models.StateIdle
	}
	return s
}

// Close releases the live result handle. Later calls are no-ops.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	previous := c.result
	c.result = nil
	c.resultVisible = false
	c.mu.Unlock()

	if previous != nil {
		c.release(context.Background(), *previous)
	}
	return nil
}
