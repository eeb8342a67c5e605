package badges

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.Mutex
	store map[string]map[string]Badge // userID -> name -> Badge
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]map[string]Badge)}
}

func (r *memoryRepository) Award(_ context.Context, b Badge) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	held, ok := r.store[b.UserID]
	if !ok {
		held = make(map[string]Badge)
		r.store[b.UserID] = held
	}
	if _, exists := held[b.Name]; exists {
		return false, nil
	}
	held[b.Name] = b
	return true, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Badge, error) {
	r.mu.Lock()
	out := make([]Badge, 0, len(r.store[userID]))
	for _, b := range r.store[userID] {
		out = append(out, b)
	}
	r.mu.Unlock()

	sortBadges(out)
	return out, nil
}

func sortBadges(out []Badge) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].AwardedAt.Equal(out[j].AwardedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].AwardedAt.Before(out[j].AwardedAt)
	})
}
