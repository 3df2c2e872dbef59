// Package storage is the file abstraction behind report exports.
//
// Two drivers are available:
//   - "local": a directory on the server (default)
//   - "s3":    S3-compatible object storage (AWS S3, MinIO, R2)
//
//	disk, err := storage.Open(ctx, config.StorageDefault())
//	err = disk.Put(ctx, "reports/2026-10-19/summary.json", body, "application/json")
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotExist is returned by Get when the object is missing.
var ErrNotExist = errors.New("storage: object does not exist")

// Disk is implemented by every storage driver. Paths are slash-separated
// and relative to the disk root.
type Disk interface {
	Put(ctx context.Context, path string, content []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	// List returns every object path under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// URL returns the public URL of path.
	URL(path string) string
}

// Open builds the named disk from configuration.
func Open(ctx context.Context, name string) (Disk, error) {
	switch name {
	case "", "local":
		return NewLocal(localRootFromConfig(), localURLFromConfig())
	case "s3":
		return NewS3(ctx, s3OptionsFromConfig())
	default:
		return nil, fmt.Errorf("storage: unknown disk %q (supported: local, s3)", name)
	}
}

// clean normalises p and rejects paths escaping the disk root.
func clean(p string) (string, error) {
	c := path.Clean("/" + strings.TrimSpace(p))
	c = strings.TrimPrefix(c, "/")
	if c == "" || c == "." {
		return "", fmt.Errorf("storage: empty path %q", p)
	}
	if strings.Contains(p, "..") {
		return "", fmt.Errorf("storage: path %q escapes the disk root", p)
	}
	return c, nil
}
