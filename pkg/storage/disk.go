// Package storage stores uploaded files on a configured disk.
//
// Two drivers are available:
//   - "local"  local filesystem (default), served by the HTTP kernel under /storage
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//	disk, err := storage.Open()
//	err = disk.Put(ctx, "products/42/a.jpg", file, "image/jpeg")
//	url := disk.URL("products/42/a.jpg")
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/shashiranjanraj/storefront/config"
)

// Disk is the filesystem driver interface. Every driver must implement this.
type Disk interface {
	// Put writes r to path, replacing any existing file.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for path.
	URL(path string) string
}

// Open returns the disk named by STORAGE_DISK.
func Open(ctx context.Context) (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unsupported STORAGE_DISK %q (supported: local, s3)", name)
	}
}
