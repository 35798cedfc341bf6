package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/claimlab/apiserver/config"
	"github.com/google/uuid"
)

var (
	// ErrNotConfigured is returned when no storage backend was selected.
	ErrNotConfigured = errors.New("receipt storage is not configured")
	// ErrObjectNotFound is returned by Get for a key the bucket lacks.
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// NewFromConfig builds the backend named by cfg.Backend. An empty backend
// returns a nil ObjectStorage and no error.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Receipts stores claim receipt files in an ObjectStorage backend.
type Receipts struct {
	backend ObjectStorage
}

// NewReceipts wraps backend. A nil backend yields a Receipts whose
// operations return ErrNotConfigured.
func NewReceipts(backend ObjectStorage) *Receipts {
	return &Receipts{backend: backend}
}

// Configured reports whether a backend is attached.
func (s *Receipts) Configured() bool {
	return s != nil && s.backend != nil
}

// Upload stores r under a fresh key for claimID and returns the key.
// contentType is passed to the backend as supplied.
func (s *Receipts) Upload(ctx context.Context, claimID int, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	key := ReceiptKey(claimID, filename)
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// Open returns a reader for a stored receipt.
func (s *Receipts) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	return s.backend.Get(ctx, key)
}

// Remove deletes a stored receipt.
func (s *Receipts) Remove(ctx context.Context, key string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	return s.backend.Delete(ctx, key)
}

// EnsureBucket ensures the backend bucket exists.
func (s *Receipts) EnsureBucket(ctx context.Context) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	return s.backend.EnsureBucket(ctx)
}

// Bucket returns the backend bucket name, or "" when unconfigured.
func (s *Receipts) Bucket() string {
	if !s.Configured() {
		return ""
	}
	return s.backend.Bucket()
}

// ReceiptKey builds receipts/{claimID}/{uuid}{ext}. Only the extension of
// filename is kept.
func ReceiptKey(claimID int, filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	return fmt.Sprintf("receipts/%d/%s%s", claimID, uuid.NewString(), ext)
}
