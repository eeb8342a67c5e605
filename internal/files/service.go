package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/focusnest/planner-service/internal/storage"
	"github.com/focusnest/planner-service/internal/support"
)

const (
	// MaxUploadBytes bounds a single upload.
	MaxUploadBytes = 10 << 20
	urlTTL         = 24 * time.Hour
)

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"text/markdown":   true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
}

// Service uploads, resolves and deletes user files.
type Service struct {
	repo  Repository
	blobs storage.BlobStore
	clock support.Clock
	ids   support.IDGenerator
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, blobs storage.BlobStore, clock support.Clock, ids support.IDGenerator) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	return &Service{repo: repo, blobs: blobs, clock: clock, ids: ids}, nil
}

// ObjectKey is the blob key for a user's file.
func ObjectKey(userID, fileID, name string) string {
	return fmt.Sprintf("uploads/%s/%s%s", userID, fileID, strings.ToLower(path.Ext(name)))
}

// Upload stores body and records its metadata.
func (s *Service) Upload(ctx context.Context, userID, name, contentType string, body io.Reader) (File, error) {
	name = strings.TrimSpace(path.Base(name))
	if userID == "" || name == "" || name == "." || name == "/" {
		return File{}, fmt.Errorf("%w: user id and file name are required", ErrInvalidInput)
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[contentType] {
		return File{}, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, contentType)
	}

	id := s.ids.NewID()
	key := ObjectKey(userID, id, name)
	limited := io.LimitReader(body, MaxUploadBytes+1)

	n, err := s.blobs.Put(ctx, key, contentType, limited)
	if err != nil {
		return File{}, fmt.Errorf("store object: %w", err)
	}
	if n > MaxUploadBytes {
		_ = s.blobs.Delete(ctx, key)
		return File{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, MaxUploadBytes)
	}

	f := File{
		ID:          id,
		UserID:      userID,
		Name:        name,
		ContentType: contentType,
		SizeBytes:   n,
		Key:         key,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		_ = s.blobs.Delete(ctx, key)
		return File{}, fmt.Errorf("record file: %w", err)
	}
	return f, nil
}

// Get returns a file owned by userID.
func (s *Service) Get(ctx context.Context, userID, fileID string) (File, error) {
	f, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return File{}, err
	}
	if f.UserID != userID {
		return File{}, ErrForbidden
	}
	return f, nil
}

// URL returns a time-limited download URL for a file owned by userID.
func (s *Service) URL(ctx context.Context, userID, fileID string) (string, error) {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return "", err
	}
	return s.blobs.URL(ctx, f.Key, urlTTL)
}

// List returns the user's uploads.
func (s *Service) List(ctx context.Context, userID string) ([]File, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes the object and its metadata.
func (s *Service) Delete(ctx context.Context, userID, fileID string) error {
	f, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, f.Key); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return s.repo.Delete(ctx, fileID)
}

// ResolveOwned loads every id and fails unless all of them belong to userID and are stored.
func (s *Service) ResolveOwned(ctx context.Context, userID string, fileIDs []string) ([]File, error) {
	out := make([]File, 0, len(fileIDs))
	for _, id := range fileIDs {
		f, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", id, err)
		}
		ok, err := s.blobs.Exists(ctx, f.Key)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", id, err)
		}
		if !ok {
			return nil, fmt.Errorf("attachment %s: %w", id, ErrNotFound)
		}
		out = append(out, f)
	}
	return out, nil
}
