// Package storage persists generated archives to a local directory or an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nyos/apr/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Sink stores archive bytes under a key and returns the location it wrote to.
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ErrEmptyKey is returned when a sink is asked to store an object without a key.
var ErrEmptyKey = errors.New("storage key is required")

// LocalSink writes archives below a directory on the local filesystem.
type LocalSink struct {
	dir    string
	logger *zap.Logger
}

// NewLocalSink creates a LocalSink rooted at dir. The directory is created on first write.
func NewLocalSink(dir string, logger *zap.Logger) *LocalSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSink{dir: dir, logger: logger}
}

// Dir returns the root directory
func (s *LocalSink) Dir() string {
	return s.dir
}

// Put writes data to dir/key atomically via a temporary file and rename.
func (s *LocalSink) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".archive-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}

	s.logger.Debug("Archive stored",
		zap.String("path", target),
		zap.Int("bytes", len(data)),
	)
	return target, nil
}

// cleanKey normalises a slash-separated key and rejects keys escaping the root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrEmptyKey
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean == "." {
		return "", ErrEmptyKey
	}
	return clean, nil
}

// NewSink builds the sink selected by configuration: S3 when a bucket is
// configured, the local directory otherwise. It returns nil when archiving
// is disabled.
func NewSink(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Sink, error) {
	if cfg == nil || !cfg.ArchiveEnabled {
		return nil, nil
	}
	if cfg.Bucket == "" {
		return NewLocalSink(cfg.LocalDir, logger), nil
	}

	sink, err := NewS3Sink(cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := sink.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}
