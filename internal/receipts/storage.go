package receipts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

// Storage holds uploaded receipt images.
type Storage interface {
	// Upload writes r under objectName and returns the number of bytes written.
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (int64, error)
	// Download reads the object bytes.
	Download(ctx context.Context, objectName string) ([]byte, error)
}

// GCSStorage stores receipts in a Google Cloud Storage bucket.
// It assumes Application Default Credentials are configured.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage creates a storage client bound to bucket.
func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorage: create storage client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// Upload implements Storage.
func (s *GCSStorage) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	written, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("Upload: copy to gs://%s/%s: %w", s.bucket, objectName, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("Upload: finalize gs://%s/%s: %w", s.bucket, objectName, err)
	}
	return written, nil
}

// Download implements Storage.
func (s *GCSStorage) Download(ctx context.Context, objectName string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Download: open gs://%s/%s: %w", s.bucket, objectName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Download: read gs://%s/%s: %w", s.bucket, objectName, err)
	}
	return data, nil
}

// MemoryStorage keeps receipts in memory for local runs and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

// Upload implements Storage.
func (s *MemoryStorage) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, fmt.Errorf("Upload: %w", err)
	}
	s.mu.Lock()
	s.objects[objectName] = buf.Bytes()
	s.mu.Unlock()
	return n, nil
}

// Download implements Storage.
func (s *MemoryStorage) Download(ctx context.Context, objectName string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("Download: object %s not found", objectName)
	}
	return append([]byte(nil), data...), nil
}
