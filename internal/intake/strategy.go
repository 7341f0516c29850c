package intake

import (
	"context"
	"strings"

	"github.com/anime-shed/gradient-fade/internal/repository"
	"github.com/anime-shed/gradient-fade/pkg/models"
)

// PasteStrategy extracts an image from one channel of a paste event. ok is
// false when the channel has nothing to offer.
type PasteStrategy interface {
	Extract(ctx context.Context, event models.PasteEvent) (input models.ImageInput, ok bool, err error)
	GetStrategyName() models.Channel
}

// ClipboardItemStrategy takes the first typed item with an image/ type.
// The scan stops at that item even if it carries no payload.
type ClipboardItemStrategy struct{}

func (ClipboardItemStrategy) Extract(ctx context.Context, event models.PasteEvent) (models.ImageInput, bool, error) {
	for _, item := range event.Items {
		if !hasImagePrefix(item.Type) {
			continue
		}
		input, ok := item.AsFile()
		if !ok {
			return models.ImageInput{}, false, nil
		}
		if input.MIMEType() == "" {
			input = models.NewImageInput(input.Name(), strings.ToLower(item.Type), input.Size(), input)
		}
		return input, true, nil
	}
	return models.ImageInput{}, false, nil
}

func (ClipboardItemStrategy) GetStrategyName() models.Channel {
	return models.ChannelClipboardItem
}

// FileListStrategy takes the first file of the clipboard's file list.
type FileListStrategy struct{}

func (FileListStrategy) Extract(ctx context.Context, event models.PasteEvent) (models.ImageInput, bool, error) {
	if len(event.Files) == 0 || event.Files[0].IsZero() {
		return models.ImageInput{}, false, nil
	}
	return event.Files[0], true, nil
}

func (FileListStrategy) GetStrategyName() models.Channel {
	return models.ChannelClipboardFile
}

// URLTextStrategy fetches plain text that is an http(s) URL. Text that is not
// a URL never reaches the network.
type URLTextStrategy struct {
	urls repository.PastedURLRepository
}

func NewURLTextStrategy(urls repository.PastedURLRepository) *URLTextStrategy {
	return &URLTextStrategy{urls: urls}
}

func (s *URLTextStrategy) Extract(ctx context.Context, event models.PasteEvent) (models.ImageInput, bool, error) {
	if s.urls == nil || !s.urls.IsCandidate(event.Text) {
		return models.ImageInput{}, false, nil
	}
	input, err := s.urls.Resolve(ctx, event.Text)
	if err != nil {
		return models.ImageInput{}, false, err
	}
	return input, true, nil
}

func (s *URLTextStrategy) GetStrategyName() models.Channel {
	return models.ChannelClipboardURL
}

func hasImagePrefix(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
