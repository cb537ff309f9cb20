// Package storage archives documents uploaded for analysis.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"mietrecht-backend/models"
)

// ErrNotFound is returned when no object exists at a storage path
var ErrNotFound = errors.New("document not found")

// Storage archives documents by key
type Storage interface {
	// Upload stores doc's content and returns the storage path
	Upload(ctx context.Context, doc models.Document, data io.Reader) (string, error)

	// Download retrieves a document by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a document; deleting a missing path is not an error
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Config selects and configures the archive backend
type Config struct {
	Type         StorageType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates the archive backend named by cfg.Type
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// objectKey shards by the first two hex digits of the document id.
// The client-supplied filename only contributes a sanitized extension.
func objectKey(doc models.Document) string {
	id := doc.ID.String()
	return fmt.Sprintf("%s/%s%s", id[:2], id, cleanExt(doc.Filename))
}

func cleanExt(filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// validKey rejects anything that objectKey could not have produced
func validKey(storagePath string) bool {
	if storagePath == "" || strings.HasPrefix(storagePath, "/") || strings.Contains(storagePath, "\\") {
		return false
	}
	if path.Clean(storagePath) != storagePath {
		return false
	}
	for _, seg := range strings.Split(storagePath, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return false
		}
	}
	return true
}
