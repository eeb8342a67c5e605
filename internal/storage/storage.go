// Package storage stores uploaded file bodies in Cloud Storage or memory.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	gcs "cloud.google.com/go/storage"
)

// ErrNotFound indicates the object does not exist.
var ErrNotFound = errors.New("object not found")

// BlobStore is the object storage surface used by file uploads.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// GCSStore handles Cloud Storage operations.
type GCSStore struct {
	client     *gcs.Client
	bucketName string
}

// NewGCSStore creates a Cloud Storage client bound to bucketName.
func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	if bucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucketName: bucketName}, nil
}

// Put uploads body under key.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, body io.Reader) (int64, error) {
	writer := s.client.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "private, max-age=3600"

	n, err := io.Copy(writer, body)
	if err != nil {
		_ = writer.Close()
		return 0, fmt.Errorf("failed to write to storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to close writer: %w", err)
	}
	return n, nil
}

// Exists reports whether key is present in the bucket.
func (s *GCSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucketName).Object(key).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// URL creates a V4 signed GET URL valid for ttl.
func (s *GCSStore) URL(_ context.Context, key string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucketName).SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

// Delete removes key. Missing objects are not an error.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucketName).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// Close closes the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

type memoryObject struct {
	contentType string
	data        []byte
}

// MemoryStore keeps objects in process memory. URLs are opaque memory:// references.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, body io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.objects[key] = memoryObject{contentType: contentType, data: buf.Bytes()}
	s.mu.Unlock()
	return n, nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *MemoryStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", ErrNotFound
	}
	return "memory://" + key, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}
