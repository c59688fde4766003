package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/lumen-shop/storefront-service/internal/config"
)

// FileStore persists uploaded files and returns the URL they are served from.
type FileStore interface {
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)
	// Delete removes a file previously returned by Save. Unknown URLs are ignored.
	Delete(ctx context.Context, url string) error
}

// New builds the FileStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (FileStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.UploadsDir, cfg.PublicPath), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
