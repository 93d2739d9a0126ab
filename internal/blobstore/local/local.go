package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smallbiznis/checkmapper/internal/blobstore"
	"go.uber.org/zap"
)

// Store writes objects below a directory on the local filesystem.
type Store struct {
	dir     string
	baseURL string
	log     *zap.Logger
}

func New(dir, baseURL string, log *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("blob public base url is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Store{dir: abs, baseURL: baseURL, log: log.Named("blobstore.local")}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := blobstore.CleanKey(key)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", blobstore.ErrEmptyData
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob parent: %w", err)
	}

	// rename keeps readers from seeing a partially written image
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename blob: %w", err)
	}

	s.log.Debug("blob stored",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)),
	)
	return blobstore.JoinURL(s.baseURL, key), nil
}
