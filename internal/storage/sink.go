package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Sink persists a downloaded result under its output name and returns where
// it ended up.
type Sink interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Kind() string
}

// objectName strips any directory components from a suggested file name.
func objectName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return base, nil
}
