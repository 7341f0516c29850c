// Package intake turns file selections and paste events into the current
// image of the pipeline.
package intake

import (
	"context"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/internal/logger"
	"github.com/anime-shed/gradient-fade/internal/observer"
	"github.com/anime-shed/gradient-fade/internal/repository"
	"github.com/anime-shed/gradient-fade/pkg/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// Target receives accepted images. The submission coordinator implements it.
type Target interface {
	ApplyInput(ctx context.Context, input models.ImageInput, channel models.Channel) error
	Clear(ctx context.Context) error
	IsSubmitting() bool
}

// Outcome of a paste. Handled mirrors preventDefault: it is true only when a
// channel accepted the paste.
type Outcome struct {
	Handled bool
	Channel models.Channel
	Reason  string
}

const (
	ReasonSubmitting = "submission_in_flight"
	ReasonNoImage    = "no_image"
	ReasonResolve    = "url_unresolved"
)

type Normalizer struct {
	target     Target
	strategies []PasteStrategy
	events     observer.Subject
}

// NewNormalizer wires the paste channels in priority order: typed clipboard
// items, then the file list, then URL text.
func NewNormalizer(target Target, urls repository.PastedURLRepository, events observer.Subject) *Normalizer {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &Normalizer{
		target: target,
		strategies: []PasteStrategy{
			ClipboardItemStrategy{},
			FileListStrategy{},
			NewURLTextStrategy(urls),
		},
		events: events,
	}
}

// Select handles the file picker. A zero input is an explicit clear.
func (n *Normalizer) Select(ctx context.Context, input models.ImageInput) error {
	if input.IsZero() {
		return n.target.Clear(ctx)
	}
	return n.target.ApplyInput(ctx, withSniffedType(input), models.ChannelFilePicker)
}

// Clear resets the current input.
func (n *Normalizer) Clear(ctx context.Context) error {
	return n.target.Clear(ctx)
}

// Paste runs the channels in order and stops at the first one yielding an
// image. Pastes are ignored while a submission is in flight, and resolution
// errors are logged and swallowed.
func (n *Normalizer) Paste(ctx context.Context, event models.PasteEvent) Outcome {
	if n.target.IsSubmitting() {
		return n.ignore(ctx, ReasonSubmitting, "")
	}

	for _, s := range n.strategies {
		input, ok, err := s.Extract(ctx, event)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"channel": s.GetStrategyName(),
			}).WithError(err).Debug("Paste resolution failed")
			return n.ignore(ctx, ReasonResolve, s.GetStrategyName())
		}
		if !ok {
			continue
		}

		if err := n.target.ApplyInput(ctx, withSniffedType(input), s.GetStrategyName()); err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
				return n.ignore(ctx, ReasonSubmitting, s.GetStrategyName())
			}
			logger.WithField("channel", s.GetStrategyName()).WithError(err).Warn("Pasted image rejected")
			return n.ignore(ctx, err.Error(), s.GetStrategyName())
		}
		return Outcome{Handled: true, Channel: s.GetStrategyName()}
	}

	return n.ignore(ctx, ReasonNoImage, "")
}

func (n *Normalizer) ignore(ctx context.Context, reason string, channel models.Channel) Outcome {
	n.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType: observer.PasteIgnored,
		Channel:   string(channel),
		Metadata:  map[string]interface{}{"reason": reason},
	})
	return Outcome{Channel: channel, Reason: reason}
}

// withSniffedType fills in a missing or generic MIME type from the content.
func withSniffedType(input models.ImageInput) models.ImageInput {
	if t := input.MIMEType(); t != "" && t != "application/octet-stream" {
		return input
	}

	rc, err := input.Open()
	if err != nil {
		return input
	}
	defer rc.Close()

	detected, err := mimetype.DetectReader(rc)
	if err != nil {
		logger.WithError(err).Debug("MIME sniffing failed")
		return input
	}
	return models.NewImageInput(input.Name(), detected.String(), input.Size(), input)
}
