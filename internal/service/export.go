package service

import (
	"context"

	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/internal/storage"
)

// SaveVisibleResult writes the displayed result to sink under the current
// output name and returns where it went.
func (c *Coordinator) SaveVisibleResult(ctx context.Context, sink storage.Sink) (string, error) {
	h, name, ok := c.VisibleResult()
	if !ok {
		return "", apperrors.NewNotFoundError("no result to download", nil)
	}
	_, data, err := c.registry.Resolve(h.ID)
	if err != nil {
		return "", apperrors.NewNotFoundError("result no longer available", err)
	}
	location, err := sink.Save(ctx, name, h.ContentType, data)
	if err != nil {
		return "", apperrors.NewInternalError("failed to save result", err)
	}
	return location, nil
}
