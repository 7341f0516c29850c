package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineEvent represents a state change of the acquisition pipeline
type PipelineEvent struct {
	EventType         EventType              `json:"event_type"`
	Timestamp         time.Time              `json:"timestamp"`
	Channel           string                 `json:"channel,omitempty"`
	DisplayIdentifier string                 `json:"display_identifier,omitempty"`
	OutputName        string                 `json:"output_name,omitempty"`
	HandleID          string                 `json:"handle_id,omitempty"`
	Duration          time.Duration          `json:"duration,omitempty"`
	Success           bool                   `json:"success"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// InputAccepted when a channel produced a new current image
	InputAccepted EventType = "input_accepted"
	// InputCleared when the current image was reset
	InputCleared EventType = "input_cleared"
	// PasteIgnored when no channel accepted a paste
	PasteIgnored EventType = "paste_ignored"
	// SubmissionStarted when the POST to the processing endpoint begins
	SubmissionStarted EventType = "submission_started"
	// SubmissionCompleted when a result handle was installed
	SubmissionCompleted EventType = "submission_completed"
	// SubmissionFailed when the round trip failed
	SubmissionFailed EventType = "submission_failed"
	// ResultReleased when a superseded result handle was freed
	ResultReleased EventType = "result_released"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PipelineEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PipelineEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"success":    event.Success,
	}
	if event.Channel != "" {
		fields["channel"] = event.Channel
	}
	if event.DisplayIdentifier != "" {
		fields["display_identifier"] = event.DisplayIdentifier
	}
	if event.OutputName != "" {
		fields["output_name"] = event.OutputName
	}
	if event.HandleID != "" {
		fields["handle_id"] = event.HandleID
	}
	if event.Duration > 0 {
		fields["duration"] = event.Duration
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case InputAccepted:
		entry.Info("Input accepted")
	case InputCleared:
		entry.Info("Input cleared")
	case PasteIgnored:
		entry.Debug("Paste ignored")
	case SubmissionStarted:
		entry.Info("Submission started")
	case SubmissionCompleted:
		entry.Info("Submission completed")
	case SubmissionFailed:
		entry.Error("Submission failed")
	case ResultReleased:
		entry.Debug("Result handle released")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order, on the caller's goroutine. A panicking observer does not stop the
// others.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PipelineEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event PipelineEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
