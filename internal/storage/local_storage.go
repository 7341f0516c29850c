package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalSink writes results into a directory on disk.
type LocalSink struct {
	dir string
}

func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

func (s *LocalSink) Kind() string { return "local" }

func (s *LocalSink) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base, err := objectName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	target := filepath.Join(s.dir, base)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}
