package repository

import (
	"context"

	"github.com/anime-shed/gradient-fade/pkg/models"
)

// PastedURLRepository turns clipboard text into an image when the text is
// an image URL.
type PastedURLRepository interface {
	// IsCandidate is a network-free check of whether text could be resolved.
	IsCandidate(text string) bool

	// Resolve fetches the URL and wraps the body as "pasted_image.<subtype>".
	Resolve(ctx context.Context, text string) (models.ImageInput, error)
}
