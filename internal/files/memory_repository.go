package files

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]File
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]File)}
}

func (r *memoryRepository) Create(_ context.Context, f File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[f.ID] = f
	return nil
}

func (r *memoryRepository) Get(_ context.Context, fileID string) (File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.store[fileID]
	if !ok {
		return File{}, ErrNotFound
	}
	return f, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]File, error) {
	r.mu.RLock()
	out := make([]File, 0)
	for _, f := range r.store {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) Delete(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[fileID]; !ok {
		return ErrNotFound
	}
	delete(r.store, fileID)
	return nil
}
