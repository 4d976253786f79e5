package config

import (
	"fmt"

	"github.com/posko-pajak/api-go/services"
	"github.com/posko-pajak/api-go/storage"
)

// NewBlobStore picks the blob backend named by STORAGE_DRIVER.
func NewBlobStore(cfg *Config) (services.BlobStore, error) {
	switch cfg.Storage.Driver {
	case "local", "":
		store, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.AppURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "r2", "s3":
		r2 := cfg.Storage.R2
		if r2.BucketName == "" || r2.AccountID == "" {
			return nil, fmt.Errorf("r2 storage needs CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_BUCKET_NAME")
		}
		return storage.NewS3Store(r2), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
}
