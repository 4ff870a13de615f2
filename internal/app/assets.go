package app

import (
	"context"

	"github.com/folio-studio/folio/internal/assets"
)

// AssetStore selects the configured asset backend. The returned directory
// is non-empty only for the disk backend, whose files the router serves.
func AssetStore(ctx context.Context, cfg *Config) (assets.Store, string, error) {
	if cfg.AssetBackend == "s3" {
		store, err := assets.NewS3Store(ctx, assets.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}
	store, err := assets.NewDiskStore(cfg.AssetDir, cfg.AssetBaseURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}
