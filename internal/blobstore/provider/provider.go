// Package provider selects the blob store named by configuration.
package provider

import (
	"context"
	"fmt"

	"github.com/smallbiznis/checkmapper/internal/blobstore"
	"github.com/smallbiznis/checkmapper/internal/blobstore/local"
	"github.com/smallbiznis/checkmapper/internal/blobstore/memory"
	s3store "github.com/smallbiznis/checkmapper/internal/blobstore/s3"
	"github.com/smallbiznis/checkmapper/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("blobstore",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

func New(p Params) (blobstore.Store, error) {
	log := p.Log.Named("blobstore")

	switch p.Config.Blob.Store {
	case config.BlobStoreS3:
		store, err := s3store.New(context.Background(), p.Config.Blob.S3, p.Log)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := store.EnsureBucket(ctx); err != nil {
					return fmt.Errorf("ensure bucket: %w", err)
				}
				return nil
			},
		})
		log.Info("using s3 blob store", zap.String("bucket", p.Config.Blob.S3.Bucket))
		return store, nil
	case config.BlobStoreMemory:
		log.Warn("using in-memory blob store, images are lost on restart")
		return memory.New(p.Config.Blob.PublicBaseURL), nil
	default:
		store, err := local.New(p.Config.Blob.LocalDir, p.Config.Blob.PublicBaseURL, p.Log)
		if err != nil {
			return nil, err
		}
		log.Info("using local blob store", zap.String("dir", store.Dir()))
		return store, nil
	}
}
