package repository

import (
	"context"
	"mime"
	"strings"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/internal/naming"
	"github.com/anime-shed/gradient-fade/internal/storage"
	"github.com/anime-shed/gradient-fade/pkg/models"
	"github.com/anime-shed/gradient-fade/pkg/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HTTPPastedURLRepository resolves pasted URLs over HTTP
type HTTPPastedURLRepository struct {
	validator *validation.URLValidator
	fetcher   storage.ImageFetcher
}

// NewHTTPPastedURLRepository creates a new HTTP-based pasted URL repository
func NewHTTPPastedURLRepository(validator *validation.URLValidator, fetcher storage.ImageFetcher) PastedURLRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &HTTPPastedURLRepository{
		validator: validator,
		fetcher:   fetcher,
	}
}

func (r *HTTPPastedURLRepository) IsCandidate(text string) bool {
	return validation.LooksLikeURL(text)
}

func (r *HTTPPastedURLRepository) Resolve(ctx context.Context, text string) (models.ImageInput, error) {
	ctx, span := otel.Tracer("gradient-fade/repository").Start(ctx, "paste.resolve_url")
	defer span.End()

	imageURL, err := r.validator.ParsePastedURL(text)
	if err != nil {
		span.SetStatus(codes.Error, "not a url")
		return models.ImageInput{}, apperrors.NewPasteResolutionError(ErrNotAURL.Error(), err)
	}
	span.SetAttributes(attribute.String("paste.url", imageURL))

	fetched, err := r.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return models.ImageInput{}, err
	}

	mediaType := fetched.ContentType
	if parsed, _, perr := mime.ParseMediaType(fetched.ContentType); perr == nil {
		mediaType = parsed
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	span.SetAttributes(
		attribute.String("paste.content_type", mediaType),
		attribute.Int("paste.bytes", len(fetched.Data)),
	)
	return models.ImageInputFromBytes(naming.PastedName(fetched.ContentType), mediaType, fetched.Data), nil
}
